package domain

import "context"

// PollStore persists polls. Records are never deleted.
//
// SetFinalTally must be a single atomic conditional write: the first caller
// wins, later callers get ErrAlreadyFinalized. Durability failures are wrapped
// with ErrStoreUnavailable.
type PollStore interface {
	Insert(ctx context.Context, p Poll) error
	Get(ctx context.Context, id string) (*Poll, error)
	GetAll(ctx context.Context) ([]Poll, error)
	GetOpen(ctx context.Context) ([]Poll, error)
	SetFinalTally(ctx context.Context, id string, t Tally) error
}
