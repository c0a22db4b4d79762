package app

import (
	"context"
	"strconv"
	"sync"

	"github.com/pscheid92/suggestbox/internal/domain"
)

type editCall struct {
	MessageID string
	Payload   domain.DisplayPayload
}

type mockMessages struct {
	mu      sync.Mutex
	edits   []editCall
	cleared []string

	fetchMessageFn   func(ctx context.Context, messageID string) (*domain.Message, error)
	editMessageFn    func(ctx context.Context, messageID string, payload domain.DisplayPayload) error
	clearReactionsFn func(ctx context.Context, messageID string) error
}

func (m *mockMessages) FetchMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	if m.fetchMessageFn != nil {
		return m.fetchMessageFn(ctx, messageID)
	}
	return &domain.Message{ID: messageID}, nil
}

func (m *mockMessages) EditMessage(ctx context.Context, messageID string, payload domain.DisplayPayload) error {
	m.mu.Lock()
	m.edits = append(m.edits, editCall{MessageID: messageID, Payload: payload})
	m.mu.Unlock()
	if m.editMessageFn != nil {
		return m.editMessageFn(ctx, messageID, payload)
	}
	return nil
}

func (m *mockMessages) ClearReactions(ctx context.Context, messageID string) error {
	m.mu.Lock()
	m.cleared = append(m.cleared, messageID)
	m.mu.Unlock()
	if m.clearReactionsFn != nil {
		return m.clearReactionsFn(ctx, messageID)
	}
	return nil
}

func (m *mockMessages) getEdits() []editCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]editCall(nil), m.edits...)
}

func (m *mockMessages) getCleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cleared...)
}

func (m *mockMessages) lastEdit(messageID string) (domain.DisplayPayload, bool) {
	edits := m.getEdits()
	for i := len(edits) - 1; i >= 0; i-- {
		if edits[i].MessageID == messageID {
			return edits[i].Payload, true
		}
	}
	return domain.DisplayPayload{}, false
}

type mockUsers struct {
	fetchUserFn func(ctx context.Context, userID string) (*domain.UserInfo, error)
}

func (m *mockUsers) FetchUser(ctx context.Context, userID string) (*domain.UserInfo, error) {
	if m.fetchUserFn != nil {
		return m.fetchUserFn(ctx, userID)
	}
	return &domain.UserInfo{ID: userID, Name: "user-" + userID, AvatarURL: "https://cdn.example/" + userID + ".png"}, nil
}

type mockLeader struct {
	mu       sync.Mutex
	leader   bool
	released bool
	err      error
}

func (m *mockLeader) TryAcquire(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leader, m.err
}

func (m *mockLeader) Release(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	return nil
}

func (m *mockLeader) wasReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// faultyStore wraps a PollStore and lets a test override single operations.
type faultyStore struct {
	domain.PollStore

	getOpenFn       func(ctx context.Context) ([]domain.Poll, error)
	getAllFn        func(ctx context.Context) ([]domain.Poll, error)
	setFinalTallyFn func(ctx context.Context, id string, t domain.Tally) error
	insertFn        func(ctx context.Context, p domain.Poll) error
}

func (s *faultyStore) GetOpen(ctx context.Context) ([]domain.Poll, error) {
	if s.getOpenFn != nil {
		return s.getOpenFn(ctx)
	}
	return s.PollStore.GetOpen(ctx)
}

func (s *faultyStore) GetAll(ctx context.Context) ([]domain.Poll, error) {
	if s.getAllFn != nil {
		return s.getAllFn(ctx)
	}
	return s.PollStore.GetAll(ctx)
}

func (s *faultyStore) SetFinalTally(ctx context.Context, id string, t domain.Tally) error {
	if s.setFinalTallyFn != nil {
		return s.setFinalTallyFn(ctx, id, t)
	}
	return s.PollStore.SetFinalTally(ctx, id, t)
}

func (s *faultyStore) Insert(ctx context.Context, p domain.Poll) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, p)
	}
	return s.PollStore.Insert(ctx, p)
}

type mockPublisher struct {
	mu        sync.Mutex
	nextID    int
	posted    []domain.DisplayPayload
	reactions map[string][]domain.EmojiKind
	deleted   []string

	postMessageFn func(ctx context.Context, payload domain.DisplayPayload) (string, error)
	addReactionFn func(ctx context.Context, messageID string, kind domain.EmojiKind) error
}

func (m *mockPublisher) PostMessage(ctx context.Context, payload domain.DisplayPayload) (string, error) {
	if m.postMessageFn != nil {
		return m.postMessageFn(ctx, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.posted = append(m.posted, payload)
	return "msg-" + strconv.Itoa(m.nextID), nil
}

func (m *mockPublisher) AddReaction(ctx context.Context, messageID string, kind domain.EmojiKind) error {
	m.mu.Lock()
	if m.reactions == nil {
		m.reactions = make(map[string][]domain.EmojiKind)
	}
	m.reactions[messageID] = append(m.reactions[messageID], kind)
	m.mu.Unlock()
	if m.addReactionFn != nil {
		return m.addReactionFn(ctx, messageID, kind)
	}
	return nil
}

func (m *mockPublisher) DeleteMessage(_ context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, channelID+"/"+messageID)
	return nil
}
