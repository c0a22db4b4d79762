// Package memory provides an in-process PollStore for tests and local runs
// without a database.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/pscheid92/suggestbox/internal/domain"
)

type PollStore struct {
	mu    sync.RWMutex
	polls map[string]domain.Poll
}

func NewPollStore() *PollStore {
	return &PollStore{polls: make(map[string]domain.Poll)}
}

func (s *PollStore) Insert(_ context.Context, p domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[p.ID]; ok {
		return domain.ErrDuplicatePoll
	}
	p.FinalTally = nil
	s.polls[p.ID] = p
	return nil
}

func (s *PollStore) Get(_ context.Context, id string) (*domain.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	p = clonePoll(p)
	return &p, nil
}

func (s *PollStore) GetAll(_ context.Context) ([]domain.Poll, error) {
	return s.snapshot(func(domain.Poll) bool { return true }), nil
}

func (s *PollStore) GetOpen(_ context.Context) ([]domain.Poll, error) {
	return s.snapshot(func(p domain.Poll) bool { return p.IsOpen() }), nil
}

func (s *PollStore) SetFinalTally(_ context.Context, id string, t domain.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[id]
	if !ok {
		return domain.ErrPollNotFound
	}
	if err := p.Close(t); err != nil {
		return err
	}
	s.polls[id] = p
	return nil
}

func (s *PollStore) snapshot(keep func(domain.Poll) bool) []domain.Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		if keep(p) {
			out = append(out, clonePoll(p))
		}
	}
	slices.SortFunc(out, func(a, b domain.Poll) int {
		if c := a.ClosesAt.Compare(b.ClosesAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func clonePoll(p domain.Poll) domain.Poll {
	if p.FinalTally != nil {
		t := *p.FinalTally
		p.FinalTally = &t
	}
	return p
}
