package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/logging"
	domain "phrasebot/internal/models"
	"phrasebot/internal/quiz"
	"phrasebot/internal/service"
)

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []*bot.SendMessageParams
	edits   []*bot.EditMessageTextParams
	clears  []*bot.EditMessageReplyMarkupParams
	answers []*bot.AnswerCallbackQueryParams
	editErr error

	failSends int // the next failSends sends return sendErr
	sendErr   error
	clearErr  error
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return nil, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, p)
	return &models.Message{ID: f.nextID, Chat: models.Chat{ID: p.ChatID.(int64)}, Text: p.Text}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, p)
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) EditMessageReplyMarkup(_ context.Context, p *bot.EditMessageReplyMarkupParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, p)
	if f.clearErr != nil {
		return nil, f.clearErr
	}
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, p)
	return true, nil
}

func (f *fakeMessenger) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, p := range f.sent {
		out[i] = p.Text
	}
	return out
}

func (f *fakeMessenger) lastAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answers) == 0 {
		return "<none>"
	}
	return f.answers[len(f.answers)-1].Text
}

// loadedContent is a curriculum that is always available
type loadedContent struct {
	idx *curriculum.Index
}

func (c loadedContent) Index(context.Context) (*curriculum.Index, error) { return c.idx, nil }

func (c loadedContent) LoadAsync(done service.LoadCallback) {
	if done != nil {
		done(c.idx, nil)
	}
}

// blockingStore holds every load until release is closed
type blockingStore struct {
	release chan struct{}
	topics  []domain.Topic
	all     []domain.Sentence
}

func (s *blockingStore) GetTopics(context.Context) ([]domain.Topic, error) {
	<-s.release
	return s.topics, nil
}

func (s *blockingStore) GetAllSentences(context.Context) ([]domain.Sentence, error) {
	return s.all, nil
}

func testCurriculum() ([]domain.Topic, []domain.Sentence) {
	topics := []domain.Topic{{ID: 1, Title: "Greetings"}, {ID: 2, Title: "At home"}}
	sentences := []domain.Sentence{
		{ID: 1, TopicID: 1, Position: 0, BaseText: "Привет", TargetText: "Hello."},
		{ID: 2, TopicID: 2, Position: 0, BaseText: "Я вижу [кошку|cat].", TargetText: "I see a cat."},
		{ID: 3, TopicID: 2, Position: 1, BaseText: "Он бегает.", TargetText: "He runs."},
	}
	return topics, sentences
}

func testIndex() *curriculum.Index {
	idx, _ := curriculum.Build(testCurriculum())
	return idx
}

type fakeReporter struct {
	enabled bool
	reports []service.Report
	err     error
}

func (r *fakeReporter) IsEnabled() bool { return r.enabled }

func (r *fakeReporter) SendReport(_ context.Context, report service.Report) error {
	if r.err != nil {
		return r.err
	}
	r.reports = append(r.reports, report)
	return nil
}

func newTestEngine(content quiz.CurriculumSource) *quiz.Engine {
	return quiz.NewEngine(quiz.NewSessionStore(), content, logging.Discard(), quiz.Options{},
		quiz.WithShuffle(func([]string) {}))
}

func newTestBotHandler(t *testing.T) (*BotHandler, *fakeMessenger) {
	t.Helper()
	content := loadedContent{idx: testIndex()}
	h := NewBotHandler(newTestEngine(content), content, nil, nil, logging.Discard())
	return h, &fakeMessenger{}
}

func messageUpdate(userID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		Chat: models.Chat{ID: userID},
		From: &models.User{ID: userID, FirstName: "Ann"},
		Text: text,
	}}
}

func callbackUpdate(userID int64, messageID int, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   fmt.Sprintf("cb-%d-%s", messageID, data),
		From: models.User{ID: userID, FirstName: "Ann"},
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: models.Chat{ID: userID}},
		},
		Data: data,
	}}
}

var errEditNotFound = errors.New("bad request, Bad Request: message to edit not found")
