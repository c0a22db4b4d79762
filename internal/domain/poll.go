package domain

import "time"

// Tally holds vote counts with the seed reaction already subtracted.
type Tally struct {
	Yes int
	No  int
}

func (t Tally) Total() int { return t.Yes + t.No }

// Poll is one suggestion under vote. FinalTally is nil while the poll is open
// and is written exactly once when it closes.
type Poll struct {
	ID         string
	Content    string
	AuthorID   string
	ClosesAt   time.Time
	CreatedAt  time.Time
	FinalTally *Tally
}

// PollState is either Open or Closed.
type PollState interface {
	pollState()
}

type Open struct{}

type Closed struct {
	Tally Tally
}

func (Open) pollState()   {}
func (Closed) pollState() {}

// State derives the lifecycle state from the presence of FinalTally only.
func (p *Poll) State() PollState {
	if p.FinalTally == nil {
		return Open{}
	}
	return Closed{Tally: *p.FinalTally}
}

func (p *Poll) IsOpen() bool { return p.FinalTally == nil }

// Close moves an open poll to Closed. A closed poll keeps its tally and
// ErrAlreadyFinalized is returned.
func (p *Poll) Close(t Tally) error {
	if p.FinalTally != nil {
		return ErrAlreadyFinalized
	}
	p.FinalTally = &t
	return nil
}

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeFailed
	OutcomeTiedFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "Passed"
	case OutcomeFailed:
		return "Failed"
	case OutcomeTiedFailed:
		return "Tied (Failed)"
	default:
		return "Pending"
	}
}
