package poll

import (
	"fmt"
	"time"

	"github.com/pscheid92/suggestbox/internal/domain"
)

// Decision is the result of evaluating a poll at a point in time.
type Decision struct {
	// Closed is true when the poll is closed in storage or closes now.
	Closed bool
	// ClosedNow is true only when this evaluation performed the Open -> Closed transition.
	ClosedNow bool
	Tally     domain.Tally
	Outcome   domain.Outcome
	Remaining time.Duration
}

// Decide applies the outcome rule. Ties, including zero votes, fail.
func Decide(t domain.Tally) domain.Outcome {
	switch {
	case t.Yes > t.No:
		return domain.OutcomePassed
	case t.Yes < t.No:
		return domain.OutcomeFailed
	default:
		return domain.OutcomeTiedFailed
	}
}

// Evaluate runs the closure check. A poll that is already closed keeps its
// stored tally regardless of the reactions passed in; an open poll past its
// deadline is tallied from reactions and closed on the returned copy.
func Evaluate(p domain.Poll, now time.Time, reactions []domain.Reaction) (domain.Poll, Decision) {
	if closed, ok := p.State().(domain.Closed); ok {
		return p, ClosedDecision(closed.Tally)
	}

	if now.Before(p.ClosesAt) {
		return p, Decision{Outcome: domain.OutcomePending, Remaining: p.ClosesAt.Sub(now)}
	}

	t := Tally(reactions)
	_ = p.Close(t)

	d := ClosedDecision(t)
	d.ClosedNow = true
	return p, d
}

// ClosedDecision builds the decision for a poll that is closed with the given tally.
func ClosedDecision(t domain.Tally) Decision {
	return Decision{Closed: true, Tally: t, Outcome: Decide(t)}
}

// CountdownText returns the coarse footer countdown. Larger remaining
// durations never map to smaller texts, so successive sweeps only count down.
func CountdownText(remaining time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case remaining > day*5/4:
		return "Voting ends in 2 days"
	case remaining > day/2:
		return "Voting ends in 1 day"
	case remaining > time.Hour:
		return "Voting ends in " + plural(roundTo(remaining, time.Hour), "hour")
	case remaining > time.Minute:
		return "Voting ends in " + plural(roundTo(remaining, time.Minute), "minute")
	default:
		return "Voting ends in 1 minute"
	}
}

func roundTo(d, unit time.Duration) int {
	return int((d + unit/2) / unit)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
