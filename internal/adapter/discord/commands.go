package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/platform/correlation"
)

const commandTimeout = 2 * time.Minute

type Submitter interface {
	Submit(ctx context.Context, req app.SubmitRequest) (*domain.Poll, error)
}

type Refresher interface {
	ForceRefresh(ctx context.Context) (app.SweepReport, error)
}

// CommandRouter handles the text commands: "suggest <text>" for members and
// "refresh" for operators.
type CommandRouter struct {
	session     Session
	prefix      string
	operators   map[string]struct{}
	suggestions Submitter
	refresher   Refresher
}

func NewCommandRouter(session Session, prefix string, operatorIDs []string, suggestions Submitter, refresher Refresher) *CommandRouter {
	ops := make(map[string]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		ops[id] = struct{}{}
	}
	return &CommandRouter{
		session:     session,
		prefix:      prefix,
		operators:   ops,
		suggestions: suggestions,
		refresher:   refresher,
	}
}

// HandleMessageCreate is registered with discordgo's AddHandler.
func (r *CommandRouter) HandleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	r.Handle(ctx, m.Message)
}

func (r *CommandRouter) Handle(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	name, args, ok := r.parse(m.Content)
	if !ok {
		return
	}

	ctx = correlation.WithTrigger(correlation.WithID(ctx, correlation.NewID()), "command:"+name)
	switch name {
	case "suggest":
		r.suggest(ctx, m, args)
	case "refresh":
		r.refresh(ctx, m)
	}
}

func (r *CommandRouter) parse(content string) (name, args string, ok bool) {
	rest, found := strings.CutPrefix(content, r.prefix)
	if !found {
		return "", "", false
	}

	name = rest
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i:]
	}
	return strings.ToLower(name), strings.TrimSpace(args), name != ""
}

func (r *CommandRouter) suggest(ctx context.Context, m *discordgo.Message, text string) {
	author := toUserInfo(m.Author)

	_, err := r.suggestions.Submit(ctx, app.SubmitRequest{
		AuthorID:         m.Author.ID,
		AuthorName:       author.Name,
		AvatarURL:        author.AvatarURL,
		Content:          text,
		CommandChannelID: m.ChannelID,
		CommandMessageID: m.ID,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptySuggestion):
		r.reply(ctx, m, fmt.Sprintf("Usage: %ssuggest <your suggestion>", r.prefix))
	case errors.Is(err, domain.ErrSuggestionTooLong):
		r.reply(ctx, m, fmt.Sprintf("Suggestions are limited to %d characters.", app.MaxSuggestionLength))
	default:
		slog.ErrorContext(ctx, "Failed to submit suggestion", "author_id", m.Author.ID, "error", err)
		r.reply(ctx, m, "Could not create your suggestion, please try again later.")
	}
}

func (r *CommandRouter) refresh(ctx context.Context, m *discordgo.Message) {
	if _, ok := r.operators[m.Author.ID]; !ok {
		slog.InfoContext(ctx, "Refresh denied", "user_id", m.Author.ID)
		return
	}

	report, err := r.refresher.ForceRefresh(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Manual sweep failed", "user_id", m.Author.ID, "error", err)
		r.reply(ctx, m, "Refresh failed, check the logs.")
		return
	}

	slog.InfoContext(ctx, "Manual sweep finished", "user_id", m.Author.ID, "polls", report.Polls, "failed", report.Failed)
	r.reply(ctx, m, fmt.Sprintf("Refreshed %d polls.", report.Polls))
}

func (r *CommandRouter) reply(ctx context.Context, m *discordgo.Message, content string) {
	if _, err := r.session.ChannelMessageSend(m.ChannelID, content, discordgo.WithContext(ctx)); err != nil {
		slog.WarnContext(ctx, "Failed to send command reply", "channel_id", m.ChannelID, "error", err)
	}
}

// Attach registers the router on a gateway session and returns the remover.
func (r *CommandRouter) Attach(s *discordgo.Session) func() {
	return s.AddHandler(r.HandleMessageCreate)
}

// NewSession creates a gateway session with the intents needed to read
// commands. The caller opens it once handlers are attached.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return s, nil
}
