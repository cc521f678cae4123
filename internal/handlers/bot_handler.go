package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/quiz"
	"phrasebot/internal/security"
	"phrasebot/internal/service"
	"phrasebot/internal/validation"
)

// Messenger is the part of the Telegram Bot API the handler talks to.
// *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// ContentLoader exposes the curriculum and its background loading
type ContentLoader interface {
	quiz.CurriculumSource
	LoadAsync(done service.LoadCallback)
}

// Reporter delivers problem reports
type Reporter interface {
	IsEnabled() bool
	SendReport(ctx context.Context, report service.Report) error
}

// User identifies who sent an update and where to answer
type User struct {
	ID        int64
	ChatID    int64
	FirstName string
}

// BotHandler turns Telegram updates into quiz operations and applies the
// resulting render instructions.
type BotHandler struct {
	engine   *quiz.Engine
	content  ContentLoader
	reporter Reporter
	limiter  *security.RateLimiter
	logger   *slog.Logger
}

// NewBotHandler creates a bot handler. reporter and limiter may be nil.
func NewBotHandler(engine *quiz.Engine, content ContentLoader, reporter Reporter, limiter *security.RateLimiter, logger *slog.Logger) *BotHandler {
	return &BotHandler{
		engine:   engine,
		content:  content,
		reporter: reporter,
		limiter:  limiter,
		logger:   logger,
	}
}

// Handle is the bot.HandlerFunc registered as the default handler
func (h *BotHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.HandleUpdate(ctx, b, update)
}

// HandleUpdate dispatches one update
func (h *BotHandler) HandleUpdate(ctx context.Context, m Messenger, update *models.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, m, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, m, update.CallbackQuery)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, m Messenger, msg *models.Message) {
	if msg.From == nil || !strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		return
	}
	user := User{ID: msg.From.ID, ChatID: msg.Chat.ID, FirstName: msg.From.FirstName}

	if !h.allow(user.ID) {
		h.logger.Debug("rate limited message", slog.Int64("user_id", user.ID))
		return
	}

	cmd := quiz.ParseCommand(msg.Text)
	h.logger.Debug("command received",
		slog.Int64("user_id", user.ID),
		slog.Int("kind", int(cmd.Kind)),
		slog.Int("topic", cmd.Topic))

	out, err := h.HandleCommand(ctx, user, cmd)
	h.apply(ctx, m, user, out)
	if err != nil {
		h.handleError(ctx, m, user, cmd, err)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, m Messenger, q *models.CallbackQuery) {
	user := User{ID: q.From.ID, ChatID: q.From.ID, FirstName: q.From.FirstName}
	var source quiz.MessageRef
	if q.Message.Message != nil {
		user.ChatID = q.Message.Message.Chat.ID
		source = quiz.MessageRef{ChatID: q.Message.Message.Chat.ID, MessageID: q.Message.Message.ID}
	}

	if !h.allow(user.ID) {
		h.answerCallback(ctx, m, q.ID, answerTooManyRequests)
		return
	}

	out, err := h.HandleButtonPress(ctx, user.ID, q.Data, source)
	switch {
	case err == nil:
		h.answerCallback(ctx, m, q.ID, "")
		h.apply(ctx, m, user, out)
	case errors.Is(err, quiz.ErrInvalidAction):
		h.logger.Warn("invalid callback data", slog.Int64("user_id", user.ID), slog.String("data", q.Data))
		h.answerCallback(ctx, m, q.ID, answerInvalidButton)
	case errors.Is(err, quiz.ErrStaleButton):
		h.answerCallback(ctx, m, q.ID, answerStaleButton)
	case errors.Is(err, quiz.ErrSessionNotFound):
		h.answerCallback(ctx, m, q.ID, answerNoSession)
		h.sendText(ctx, m, user.ChatID, textNoSession)
	case errors.Is(err, curriculum.ErrContentNotLoaded):
		h.answerCallback(ctx, m, q.ID, answerLoading)
		h.sendText(ctx, m, user.ChatID, textLoading)
		h.retryWhenLoaded(ctx, m, user, func(ctx context.Context) ([]quiz.RenderInstruction, error) {
			return h.HandleButtonPress(ctx, user.ID, q.Data, quiz.MessageRef{})
		})
	default:
		h.logger.Error("button press failed",
			slog.Int64("user_id", user.ID),
			slog.String("data", q.Data),
			slog.Any("error", err))
		h.answerCallback(ctx, m, q.ID, "")
		h.sendText(ctx, m, user.ChatID, textGenericError)
	}
}

// HandleCommand runs a parsed command. Messages produced before an error
// are returned together with it, so a greeting still goes out while the
// curriculum is loading.
func (h *BotHandler) HandleCommand(ctx context.Context, user User, cmd quiz.Command) ([]quiz.RenderInstruction, error) {
	switch cmd.Kind {
	case quiz.CommandStart:
		greeting := h.text(user, greetingText(user.FirstName))
		contents, err := h.contents(ctx, user)
		return append([]quiz.RenderInstruction{greeting}, contents...), err

	case quiz.CommandContents:
		return h.contents(ctx, user)

	case quiz.CommandStartTopic:
		return h.engine.Start(ctx, user.ID, cmd.Topic, nil)

	case quiz.CommandStartAt:
		sentence := cmd.Sentence
		return h.engine.Start(ctx, user.ID, cmd.Topic, &sentence)

	case quiz.CommandHelp:
		return []quiz.RenderInstruction{h.text(user, textHelp)}, nil

	case quiz.CommandReport:
		return h.report(ctx, user, cmd.Text)

	case quiz.CommandButtonPress:
		return h.HandleButtonPress(ctx, user.ID, cmd.Token, quiz.MessageRef{})

	default:
		return []quiz.RenderInstruction{h.text(user, textUnknownCommand)}, nil
	}
}

// HandleButtonPress decodes a button token and runs it against the user's
// session. source is the message the button belongs to.
func (h *BotHandler) HandleButtonPress(ctx context.Context, userID int64, token string, source quiz.MessageRef) ([]quiz.RenderInstruction, error) {
	action, err := quiz.DecodeAction(token)
	if err != nil {
		return nil, err
	}
	return h.engine.HandleAction(ctx, userID, action, source)
}

func (h *BotHandler) contents(ctx context.Context, user User) ([]quiz.RenderInstruction, error) {
	idx, err := h.content.Index(ctx)
	if err != nil {
		return nil, err
	}

	var out []quiz.RenderInstruction
	for _, text := range contentsMessages(idx) {
		out = append(out, h.text(user, text))
	}
	return out, nil
}

func (h *BotHandler) report(ctx context.Context, user User, text string) ([]quiz.RenderInstruction, error) {
	text, err := validation.ValidateReport(text)
	if err != nil {
		return []quiz.RenderInstruction{h.text(user, textReportUsage)}, nil
	}
	if h.reporter == nil || !h.reporter.IsEnabled() {
		return []quiz.RenderInstruction{h.text(user, textReportDisabled)}, nil
	}

	report := service.Report{UserID: user.ID, UserName: user.FirstName, Text: text}
	if s, ok := h.engine.Session(user.ID); ok {
		report.HasSession = true
		report.Topic = s.Topic
		report.TopicTitle = s.TopicTitle
		report.SentenceIndex = s.SentenceIndex
		report.Answer = s.Answer
	}

	if err := h.reporter.SendReport(ctx, report); err != nil {
		return nil, err
	}
	return []quiz.RenderInstruction{h.text(user, textReportSent)}, nil
}

func (h *BotHandler) handleError(ctx context.Context, m Messenger, user User, cmd quiz.Command, err error) {
	switch {
	case errors.Is(err, curriculum.ErrContentNotLoaded):
		h.sendText(ctx, m, user.ChatID, textLoading)
		if cmd.Kind == quiz.CommandStart {
			// the greeting is already out
			cmd = quiz.Command{Kind: quiz.CommandContents}
		}
		h.retryWhenLoaded(ctx, m, user, func(ctx context.Context) ([]quiz.RenderInstruction, error) {
			return h.HandleCommand(ctx, user, cmd)
		})
	case errors.Is(err, curriculum.ErrInvalidTopic),
		errors.Is(err, curriculum.ErrEmptyTopic),
		errors.Is(err, curriculum.ErrInvalidSentenceIndex):
		h.sendText(ctx, m, user.ChatID, textUnknownCommand)
	case errors.Is(err, quiz.ErrSessionNotFound):
		h.sendText(ctx, m, user.ChatID, textNoSession)
	case errors.Is(err, quiz.ErrInvalidAction), errors.Is(err, quiz.ErrStaleButton):
		// ignored
	default:
		h.logger.Error("command failed",
			slog.Int64("user_id", user.ID),
			slog.Int("kind", int(cmd.Kind)),
			slog.Any("error", err))
		h.sendText(ctx, m, user.ChatID, textGenericError)
	}
}

// retryWhenLoaded reports the load outcome to the user and then runs fn
func (h *BotHandler) retryWhenLoaded(ctx context.Context, m Messenger, user User, fn func(context.Context) ([]quiz.RenderInstruction, error)) {
	ctx = context.WithoutCancel(ctx)
	h.content.LoadAsync(func(idx *curriculum.Index, err error) {
		if err != nil {
			h.sendText(ctx, m, user.ChatID, textLoadFailed)
			return
		}
		h.sendText(ctx, m, user.ChatID, loadedText(idx))

		out, err := fn(ctx)
		h.apply(ctx, m, user, out)
		if err != nil && !errors.Is(err, curriculum.ErrContentNotLoaded) {
			h.handleError(ctx, m, user, quiz.Command{}, err)
		}
	})
}

func (h *BotHandler) text(user User, text string) quiz.RenderInstruction {
	return quiz.RenderInstruction{Mode: quiz.ModeSend, UserID: user.ID, Text: text}
}

func (h *BotHandler) allow(userID int64) bool {
	return h.limiter == nil || h.limiter.Allow(userID)
}
