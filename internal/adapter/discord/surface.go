// Package discord implements the chat surface and command handling on top of
// discordgo.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/platform/retry"
)

// Session is the subset of *discordgo.Session the adapter needs.
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

var DefaultRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   500 * time.Millisecond,
	MaxBackoff:       5 * time.Second,
	RateLimitBackoff: 2 * time.Second,
}

// Surface is the domain.ChatSurface for one suggestion channel.
type Surface struct {
	session   Session
	channelID string
	policy    retry.Policy
	metrics   *metrics.ChatMetrics
}

var _ domain.ChatSurface = (*Surface)(nil)

func NewSurface(session Session, channelID string, policy retry.Policy, m *metrics.ChatMetrics) *Surface {
	return &Surface{session: session, channelID: channelID, policy: policy, metrics: m}
}

func (s *Surface) PostMessage(ctx context.Context, payload domain.DisplayPayload) (string, error) {
	msg, err := call(ctx, s, "post_message", func(opts ...discordgo.RequestOption) (*discordgo.Message, error) {
		return s.session.ChannelMessageSendEmbed(s.channelID, toEmbed(payload), opts...)
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (s *Surface) EditMessage(ctx context.Context, messageID string, payload domain.DisplayPayload) error {
	_, err := call(ctx, s, "edit_message", func(opts ...discordgo.RequestOption) (*discordgo.Message, error) {
		return s.session.ChannelMessageEditEmbed(s.channelID, messageID, toEmbed(payload), opts...)
	})
	return err
}

func (s *Surface) FetchMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := call(ctx, s, "fetch_message", func(opts ...discordgo.RequestOption) (*discordgo.Message, error) {
		return s.session.ChannelMessage(s.channelID, messageID, opts...)
	})
	if err != nil {
		return nil, err
	}
	return &domain.Message{ID: msg.ID, ChannelID: msg.ChannelID, Reactions: toReactions(msg.Reactions)}, nil
}

func (s *Surface) AddReaction(ctx context.Context, messageID string, kind domain.EmojiKind) error {
	emoji, ok := emojiByKind[kind]
	if !ok {
		return fmt.Errorf("no emoji for reaction kind %q", kind)
	}
	return callVoid(ctx, s, "add_reaction", func(opts ...discordgo.RequestOption) error {
		return s.session.MessageReactionAdd(s.channelID, messageID, emoji, opts...)
	})
}

func (s *Surface) ClearReactions(ctx context.Context, messageID string) error {
	return callVoid(ctx, s, "clear_reactions", func(opts ...discordgo.RequestOption) error {
		return s.session.MessageReactionsRemoveAll(s.channelID, messageID, opts...)
	})
}

func (s *Surface) FetchUser(ctx context.Context, userID string) (*domain.UserInfo, error) {
	u, err := call(ctx, s, "fetch_user", func(opts ...discordgo.RequestOption) (*discordgo.User, error) {
		return s.session.User(userID, opts...)
	})
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Surface) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return callVoid(ctx, s, "delete_message", func(opts ...discordgo.RequestOption) error {
		return s.session.ChannelMessageDelete(channelID, messageID, opts...)
	})
}

func call[T any](ctx context.Context, s *Surface, op string, fn func(opts ...discordgo.RequestOption) (T, error)) (T, error) {
	policy := s.policy
	policy.OnRetry = func(int, error, time.Duration) {
		s.metrics.Retries.WithLabelValues(op).Inc()
	}

	v, err := retry.Do(ctx, policy, classify, func(ctx context.Context) (T, error) {
		v, err := fn(discordgo.WithContext(ctx))
		return v, normalize(err)
	})
	if err != nil {
		s.metrics.Requests.WithLabelValues(op, "error").Inc()
		var zero T
		return zero, mapError(op, err)
	}

	s.metrics.Requests.WithLabelValues(op, "ok").Inc()
	return v, nil
}

func callVoid(ctx context.Context, s *Surface, op string, fn func(opts ...discordgo.RequestOption) error) error {
	_, err := call(ctx, s, op, func(opts ...discordgo.RequestOption) (struct{}, error) {
		return struct{}{}, fn(opts...)
	})
	return err
}
