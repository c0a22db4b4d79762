package poll

import "github.com/pscheid92/suggestbox/internal/domain"

// Tally converts raw platform reaction counts into votes. The bot's own seed
// reaction is subtracted per vote kind and counts never go below zero, which
// covers a seed that was removed by a moderator. Shrug and custom reactions
// are ignored.
func Tally(reactions []domain.Reaction) domain.Tally {
	var t domain.Tally
	for _, r := range reactions {
		switch r.Kind {
		case domain.EmojiThumbsUp:
			t.Yes = votes(r.Count)
		case domain.EmojiThumbsDown:
			t.No = votes(r.Count)
		}
	}
	return t
}

func votes(raw int) int {
	return max(raw-1, 0)
}
