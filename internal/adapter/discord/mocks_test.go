package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/domain"
)

type mockSession struct {
	mu sync.Mutex

	sendFn      func(channelID, content string) (*discordgo.Message, error)
	sendEmbedFn func(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	editEmbedFn func(channelID, messageID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	messageFn   func(channelID, messageID string) (*discordgo.Message, error)
	deleteFn    func(channelID, messageID string) error
	reactFn     func(channelID, messageID, emojiID string) error
	clearFn     func(channelID, messageID string) error
	userFn      func(userID string) (*discordgo.User, error)

	sent []string
}

func (m *mockSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, content)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(channelID, content)
	}
	return &discordgo.Message{ID: "reply", ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendEmbedFn != nil {
		return m.sendEmbedFn(channelID, embed)
	}
	return &discordgo.Message{ID: "posted", ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.editEmbedFn != nil {
		return m.editEmbedFn(channelID, messageID, embed)
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.messageFn != nil {
		return m.messageFn(channelID, messageID)
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	if m.deleteFn != nil {
		return m.deleteFn(channelID, messageID)
	}
	return nil
}

func (m *mockSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	if m.reactFn != nil {
		return m.reactFn(channelID, messageID, emojiID)
	}
	return nil
}

func (m *mockSession) MessageReactionsRemoveAll(channelID, messageID string, _ ...discordgo.RequestOption) error {
	if m.clearFn != nil {
		return m.clearFn(channelID, messageID)
	}
	return nil
}

func (m *mockSession) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	if m.userFn != nil {
		return m.userFn(userID)
	}
	return &discordgo.User{ID: userID, Username: "user-" + userID}, nil
}

func (m *mockSession) replies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type mockSubmitter struct {
	submitFn func(ctx context.Context, req app.SubmitRequest) (*domain.Poll, error)
	requests []app.SubmitRequest
}

func (m *mockSubmitter) Submit(ctx context.Context, req app.SubmitRequest) (*domain.Poll, error) {
	m.requests = append(m.requests, req)
	if m.submitFn != nil {
		return m.submitFn(ctx, req)
	}
	return &domain.Poll{ID: "posted", Content: req.Content, AuthorID: req.AuthorID}, nil
}

type mockRefresher struct {
	refreshFn func(ctx context.Context) (app.SweepReport, error)
	calls     int
}

func (m *mockRefresher) ForceRefresh(ctx context.Context) (app.SweepReport, error) {
	m.calls++
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return app.SweepReport{}, nil
}
