package poll

import (
	"fmt"
	"time"

	"github.com/pscheid92/suggestbox/internal/domain"
)

const (
	yesFieldName   = "👍"
	noFieldName    = "👎"
	countdownField = "Voting ends"
	noVotesNotice  = "No votes were cast"
)

// Render builds the display payload for a poll. author may be nil when the
// lookup failed, in which case a placeholder carrying the raw author id is used.
func Render(p domain.Poll, d Decision, author *domain.UserInfo) domain.DisplayPayload {
	payload := domain.DisplayPayload{
		Description: p.Content,
		Author:      renderAuthor(p.AuthorID, author),
	}

	if !d.Closed {
		payload.Color = domain.ColorOpen
		payload.Timestamp = p.ClosesAt.UTC()
		payload.Footer = CountdownText(d.Remaining)
		payload.Fields = []domain.DisplayField{{
			Name:  countdownField,
			Value: fmt.Sprintf("<t:%d:R>", p.ClosesAt.Unix()),
		}}
		return payload
	}

	payload.Title = d.Outcome.String()
	payload.Color = outcomeColor(d.Outcome)

	if d.Tally.Total() == 0 {
		payload.Footer = noVotesNotice
		return payload
	}

	yes, no := Percentages(d.Tally)
	payload.Fields = []domain.DisplayField{
		{Name: yesFieldName, Value: fieldValue(yes, d.Tally.Yes), Inline: true},
		{Name: noFieldName, Value: fieldValue(no, d.Tally.No), Inline: true},
	}
	return payload
}

// Percentages returns the yes and no shares rounded half up. Both are zero
// when no votes were cast.
func Percentages(t domain.Tally) (yes, no int) {
	total := t.Total()
	if total == 0 {
		return 0, 0
	}
	return percent(t.Yes, total), percent(t.No, total)
}

func percent(n, total int) int {
	return (200*n + total) / (2 * total)
}

func fieldValue(pct, count int) string {
	return fmt.Sprintf("%d%% (%d votes)", pct, count)
}

func outcomeColor(o domain.Outcome) int {
	switch o {
	case domain.OutcomePassed:
		return domain.ColorPassed
	case domain.OutcomeFailed:
		return domain.ColorFailed
	default:
		return domain.ColorTied
	}
}

func renderAuthor(authorID string, author *domain.UserInfo) domain.DisplayAuthor {
	if author == nil || author.Name == "" {
		return domain.DisplayAuthor{Name: fmt.Sprintf("Unknown user (%s)", authorID)}
	}
	return domain.DisplayAuthor{Name: author.Name, IconURL: author.AvatarURL}
}

// OpenPayload renders a freshly created poll before it has an id.
func OpenPayload(content, authorID string, author *domain.UserInfo, now, closesAt time.Time) domain.DisplayPayload {
	p := domain.Poll{Content: content, AuthorID: authorID, ClosesAt: closesAt}
	_, d := Evaluate(p, now, nil)
	return Render(p, d, author)
}
