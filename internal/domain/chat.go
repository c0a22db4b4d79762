package domain

import "context"

type EmojiKind string

const (
	EmojiThumbsUp   EmojiKind = "thumbs_up"
	EmojiThumbsDown EmojiKind = "thumbs_down"
	EmojiShrug      EmojiKind = "shrug"
	EmojiOther      EmojiKind = "other"
)

// SeedReactions are added to every new poll message, in display order.
var SeedReactions = []EmojiKind{EmojiThumbsUp, EmojiShrug, EmojiThumbsDown}

// Reaction is the raw count reported by the chat platform, seed reaction included.
type Reaction struct {
	Kind  EmojiKind
	Count int
}

type Message struct {
	ID        string
	ChannelID string
	Reactions []Reaction
}

type UserInfo struct {
	ID        string
	Name      string
	AvatarURL string
}

// MessageSurface reads and updates poll messages in the suggestion channel.
type MessageSurface interface {
	FetchMessage(ctx context.Context, messageID string) (*Message, error)
	EditMessage(ctx context.Context, messageID string, payload DisplayPayload) error
	ClearReactions(ctx context.Context, messageID string) error
}

// PublishSurface creates poll messages and removes command messages.
type PublishSurface interface {
	PostMessage(ctx context.Context, payload DisplayPayload) (string, error)
	AddReaction(ctx context.Context, messageID string, kind EmojiKind) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// UserDirectory resolves display info for poll authors. Returns ErrUserNotFound
// when the account no longer exists.
type UserDirectory interface {
	FetchUser(ctx context.Context, userID string) (*UserInfo, error)
}

// ChatSurface is the full chat platform contract.
type ChatSurface interface {
	MessageSurface
	PublishSurface
	UserDirectory
}

// LeaderElector gates periodic sweeps to a single instance.
type LeaderElector interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
