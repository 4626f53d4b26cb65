package bot

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTelegramService struct {
	domain.TelegramService
	mu          sync.Mutex
	updatesChan chan tgbotapi.Update
	sentTexts   []string
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) record(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTexts = append(m.sentTexts, text)
}

func (m *mockTelegramService) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentTexts...)
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) AnswerCallback(callbackID string, text string) error {
	return nil
}

func (m *mockTelegramService) StopReceivingUpdates() {}

type mockUserService struct {
	domain.UserService
	mu           sync.Mutex
	users        map[int64]*models.User
	blacklisted  map[int64]bool
	ageConfirmed []int64
}

func (m *mockUserService) IsAdmin(userID int64) bool { return false }

func (m *mockUserService) IsBlacklisted(userID int64) bool {
	return m.blacklisted[userID]
}

func (m *mockUserService) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[int64]*models.User)
	}
	if existing, ok := m.users[user.TelegramID]; ok {
		user.AgeConfirmed = existing.AgeConfirmed
	}
	m.users[user.TelegramID] = user
	return nil
}

func (m *mockUserService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[telegramID], nil
}

func (m *mockUserService) ConfirmAge(ctx context.Context, telegramID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ageConfirmed = append(m.ageConfirmed, telegramID)
	if u, ok := m.users[telegramID]; ok {
		u.AgeConfirmed = true
	}
	return nil
}

func (m *mockUserService) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	return nil
}

type mockStateManager struct {
	domain.StateManager
	mu     sync.Mutex
	states map[int64]*models.UserState
}

func (m *mockStateManager) SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[int64]*models.UserState)
	}
	m.states[userID] = &models.UserState{UserID: userID, CurrentStep: step, Data: data}
	return nil
}

func (m *mockStateManager) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *mockStateManager) ClearUserState(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

func (m *mockStateManager) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func newTestBot(t *testing.T, tg *mockTelegramService, users *mockUserService) *Bot {
	t.Helper()

	state := &mockStateManager{states: make(map[int64]*models.UserState)}
	logger := zerolog.New(io.Discard)

	cfg := &config.Config{}
	cfg.Bot.RateLimitMessages = models.RateLimitMessages
	cfg.Bot.RateLimitWindow = models.RateLimitWindow
	cfg.Bot.PaginationSize = models.DefaultPaginationSize

	b, err := NewBot(tg, cfg, nil, state, nil, nil, users, nil, nil, nil, nil, &logger)
	require.NoError(t, err)
	return b
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: "testuser"},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: userID},
			Data: data,
			Message: &tgbotapi.Message{
				Chat:      &tgbotapi.Chat{ID: userID},
				MessageID: 1,
			},
		},
	}
}

func TestStartPromptsAgeGate(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{users: make(map[int64]*models.User)}
	b := newTestBot(t, tg, users)

	b.processUpdate(context.Background(), messageUpdate(123, "/start"))

	require.Contains(t, users.users, int64(123))
	assert.Equal(t, "testuser", users.users[123].Username)

	texts := tg.texts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "18 years of age")
}

func TestAgeConfirmationOpensMenu(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{users: map[int64]*models.User{
		123: {TelegramID: 123, Username: "testuser"},
	}}
	b := newTestBot(t, tg, users)

	b.processUpdate(context.Background(), callbackUpdate(123, "confirm_age"))

	assert.Contains(t, users.ageConfirmed, int64(123))

	texts := tg.texts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "Choose an action")
}

func TestActionsBlockedBeforeAgeGate(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{users: map[int64]*models.User{
		123: {TelegramID: 123, Username: "testuser", AgeConfirmed: false},
	}}
	b := newTestBot(t, tg, users)

	b.processUpdate(context.Background(), messageUpdate(123, btnBookCall))

	texts := tg.texts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "18 years of age")
}

func TestRecoverFromHandlerPanic(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{users: make(map[int64]*models.User)}
	b := newTestBot(t, tg, users)

	assert.NotPanics(t, func() {
		b.withRecovery(func() { panic("handler blew up") })
	})
}

func TestBlacklistedUserIgnored(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{
		users:       map[int64]*models.User{},
		blacklisted: map[int64]bool{123: true},
	}
	b := newTestBot(t, tg, users)

	b.processUpdate(context.Background(), messageUpdate(123, "/start"))

	assert.Empty(t, tg.texts())
}

func TestBotStartLoop(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	users := &mockUserService{users: make(map[int64]*models.User)}
	b := newTestBot(t, tg, users)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	tg.updatesChan <- messageUpdate(123, "/start")

	// Give it a moment to process
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	assert.NotEmpty(t, tg.texts())
}
