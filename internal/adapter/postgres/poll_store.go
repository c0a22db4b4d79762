package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/suggestbox/internal/domain"
)

const pollColumns = `id, content, author_id, closes_at, created_at, yes_votes, no_votes`

type PollStore struct {
	pool *pgxpool.Pool
}

func NewPollStore(pool *pgxpool.Pool) *PollStore {
	return &PollStore{pool: pool}
}

func (s *PollStore) Insert(ctx context.Context, p domain.Poll) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO polls (id, content, author_id, closes_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Content, p.AuthorID, p.ClosesAt.UTC())
	if err != nil {
		return unavailable("insert poll", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicatePoll
	}
	return nil
}

func (s *PollStore) Get(ctx context.Context, id string) (*domain.Poll, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id)

	p, err := scanPoll(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, unavailable("get poll", err)
	}
	return &p, nil
}

func (s *PollStore) GetAll(ctx context.Context) ([]domain.Poll, error) {
	return s.list(ctx, `SELECT `+pollColumns+` FROM polls ORDER BY closes_at, id`)
}

func (s *PollStore) GetOpen(ctx context.Context) ([]domain.Poll, error) {
	return s.list(ctx, `SELECT `+pollColumns+` FROM polls WHERE yes_votes IS NULL ORDER BY closes_at, id`)
}

// SetFinalTally writes the tally only if none is stored yet. The zero-row case
// is disambiguated with a second lookup; it is never written twice.
func (s *PollStore) SetFinalTally(ctx context.Context, id string, t domain.Tally) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE polls
		SET yes_votes = $2, no_votes = $3, closed_at = NOW()
		WHERE id = $1 AND yes_votes IS NULL`,
		id, t.Yes, t.No)
	if err != nil {
		return unavailable("set final tally", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return unavailable("check poll existence", err)
	}
	if !exists {
		return domain.ErrPollNotFound
	}
	return domain.ErrAlreadyFinalized
}

func (s *PollStore) list(ctx context.Context, query string) ([]domain.Poll, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, unavailable("list polls", err)
	}

	polls, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Poll, error) {
		return scanPoll(row)
	})
	if err != nil {
		return nil, unavailable("scan polls", err)
	}
	return polls, nil
}

func scanPoll(row pgx.Row) (domain.Poll, error) {
	var (
		p       domain.Poll
		yes, no pgtype.Int4
	)
	if err := row.Scan(&p.ID, &p.Content, &p.AuthorID, &p.ClosesAt, &p.CreatedAt, &yes, &no); err != nil {
		return domain.Poll{}, err
	}
	p.ClosesAt = p.ClosesAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	if yes.Valid && no.Valid {
		p.FinalTally = &domain.Tally{Yes: int(yes.Int32), No: int(no.Int32)}
	}
	return p, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
