package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/suggestbox/internal/domain"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPoll(id string, closesIn time.Duration) domain.Poll {
	return domain.Poll{ID: id, Content: "suggestion " + id, AuthorID: "7", ClosesAt: base.Add(closesIn)}
}

func TestInsert_Duplicate(t *testing.T) {
	s := NewPollStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newPoll("1", time.Hour)))
	err := s.Insert(ctx, newPoll("1", 2*time.Hour))

	assert.ErrorIs(t, err, domain.ErrDuplicatePoll)
	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), got.ClosesAt)
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewPollStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestGetOpen_ExcludesFinalized(t *testing.T) {
	s := NewPollStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newPoll("b", 2*time.Hour)))
	require.NoError(t, s.Insert(ctx, newPoll("a", time.Hour)))
	require.NoError(t, s.Insert(ctx, newPoll("c", 3*time.Hour)))
	require.NoError(t, s.SetFinalTally(ctx, "c", domain.Tally{Yes: 1}))

	open, err := s.GetOpen(ctx)
	require.NoError(t, err)
	all, err := s.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, open, 2)
	assert.Equal(t, "a", open[0].ID)
	assert.Equal(t, "b", open[1].ID)
	require.Len(t, all, 3)
	assert.Equal(t, &domain.Tally{Yes: 1}, all[2].FinalTally)
}

func TestSetFinalTally(t *testing.T) {
	s := NewPollStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newPoll("1", time.Hour)))

	require.NoError(t, s.SetFinalTally(ctx, "1", domain.Tally{Yes: 3, No: 1}))
	err := s.SetFinalTally(ctx, "1", domain.Tally{Yes: 0, No: 5})

	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Tally{Yes: 3, No: 1}, got.FinalTally)

	assert.ErrorIs(t, s.SetFinalTally(ctx, "nope", domain.Tally{}), domain.ErrPollNotFound)
}

func TestSetFinalTally_ConcurrentSingleWinner(t *testing.T) {
	s := NewPollStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newPoll("1", time.Hour)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := range 20 {
		wg.Go(func() {
			if s.SetFinalTally(ctx, "1", domain.Tally{Yes: i}) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewPollStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newPoll("1", time.Hour)))
	require.NoError(t, s.SetFinalTally(ctx, "1", domain.Tally{Yes: 2}))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	all[0].FinalTally.Yes = 99

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.FinalTally.Yes)
}
