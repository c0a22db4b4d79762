package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/poll"
)

// MaxSuggestionLength matches the platform's embed description limit.
const MaxSuggestionLength = 4096

// SubmitRequest carries a member's suggestion and the command message it came from.
type SubmitRequest struct {
	AuthorID         string
	AuthorName       string
	AvatarURL        string
	Content          string
	CommandChannelID string
	CommandMessageID string
}

// PollSweeper runs a targeted sweep for a freshly created poll.
type PollSweeper interface {
	SweepPoll(ctx context.Context, pollID string) (SweepReport, error)
}

// Suggestions is the creation entry point: it posts the poll message, seeds
// the vote reactions and records the poll.
type Suggestions struct {
	store            domain.PollStore
	publisher        domain.PublishSurface
	sweeper          PollSweeper
	clock            clockwork.Clock
	votingWindow     time.Duration
	suggestChannelID string
}

// NewSuggestions creates the submission use case. sweeper may be nil, in
// which case new polls are picked up by the next frequent sweep.
func NewSuggestions(
	store domain.PollStore,
	publisher domain.PublishSurface,
	sweeper PollSweeper,
	clock clockwork.Clock,
	votingWindow time.Duration,
	suggestChannelID string,
) *Suggestions {
	return &Suggestions{
		store:            store,
		publisher:        publisher,
		sweeper:          sweeper,
		clock:            clock,
		votingWindow:     votingWindow,
		suggestChannelID: suggestChannelID,
	}
}

func (s *Suggestions) Submit(ctx context.Context, req SubmitRequest) (*domain.Poll, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptySuggestion
	}
	if utf8.RuneCountInString(content) > MaxSuggestionLength {
		return nil, domain.ErrSuggestionTooLong
	}

	now := s.clock.Now().UTC()
	p := domain.Poll{
		Content:   content,
		AuthorID:  req.AuthorID,
		ClosesAt:  now.Add(s.votingWindow),
		CreatedAt: now,
	}

	var author *domain.UserInfo
	if req.AuthorName != "" {
		author = &domain.UserInfo{ID: req.AuthorID, Name: req.AuthorName, AvatarURL: req.AvatarURL}
	}

	id, err := s.publisher.PostMessage(ctx, poll.OpenPayload(content, req.AuthorID, author, now, p.ClosesAt))
	if err != nil {
		return nil, fmt.Errorf("failed to post poll message: %w", err)
	}
	p.ID = id

	// a missing seed only lowers that option's floor; the poll still works
	for _, kind := range domain.SeedReactions {
		if err := s.publisher.AddReaction(ctx, id, kind); err != nil {
			slog.WarnContext(ctx, "Failed to seed reaction", "poll_id", id, "emoji", kind, "error", err)
		}
	}

	if err := s.store.Insert(ctx, p); err != nil {
		if delErr := s.publisher.DeleteMessage(ctx, s.suggestChannelID, id); delErr != nil {
			slog.ErrorContext(ctx, "Failed to remove untracked poll message", "poll_id", id, "error", delErr)
		}
		return nil, fmt.Errorf("failed to store poll: %w", err)
	}

	slog.InfoContext(ctx, "Poll created", "poll_id", id, "author_id", req.AuthorID, "closes_at", p.ClosesAt)

	if req.CommandMessageID != "" {
		if err := s.publisher.DeleteMessage(ctx, req.CommandChannelID, req.CommandMessageID); err != nil {
			slog.WarnContext(ctx, "Failed to delete command message", "message_id", req.CommandMessageID, "error", err)
		}
	}

	if s.sweeper != nil {
		if _, err := s.sweeper.SweepPoll(ctx, id); err != nil && !errors.Is(err, context.Canceled) {
			slog.WarnContext(ctx, "Targeted sweep failed", "poll_id", id, "error", err)
		}
	}

	return &p, nil
}
