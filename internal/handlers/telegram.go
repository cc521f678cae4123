package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"phrasebot/internal/quiz"
)

// apply performs instructions in order. A failed instruction is logged and
// the rest still run; when it carried a quiz message the user is asked to
// retry, since that session is left without a message to press.
func (h *BotHandler) apply(ctx context.Context, m Messenger, user User, instructions []quiz.RenderInstruction) {
	for _, ins := range instructions {
		var err error
		switch ins.Mode {
		case quiz.ModeSend:
			err = h.send(ctx, m, user.ChatID, ins)
		case quiz.ModeEdit:
			err = h.edit(ctx, m, user.ChatID, ins)
		case quiz.ModeClear:
			h.clear(ctx, m, ins.Target)
		}
		if err != nil {
			h.logger.Error("failed to render",
				slog.Int64("user_id", user.ID),
				slog.String("mode", ins.Mode.String()),
				slog.Any("error", err))
			if ins.SessionID != "" {
				h.sendText(ctx, m, user.ChatID, textGenericError)
			}
		}
	}
}

func (h *BotHandler) send(ctx context.Context, m Messenger, chatID int64, ins quiz.RenderInstruction) error {
	chunks := splitMessage(ins.Text, maxMessageLength)
	for i, chunk := range chunks {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      chunk,
			ParseMode: models.ParseModeMarkdown,
		}
		last := i == len(chunks)-1
		if last && ins.Keyboard != nil {
			params.ReplyMarkup = inlineKeyboard(ins.Keyboard)
		}

		msg, err := m.SendMessage(ctx, params)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		if last && ins.SessionID != "" && msg != nil {
			h.engine.BindMessage(ins.UserID, ins.SessionID, quiz.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID})
		}
	}
	return nil
}

// edit replaces a message in place, sending a fresh one when the target is
// gone or was never bound.
func (h *BotHandler) edit(ctx context.Context, m Messenger, chatID int64, ins quiz.RenderInstruction) error {
	if ins.Target.IsZero() {
		return h.send(ctx, m, chatID, ins)
	}

	params := &bot.EditMessageTextParams{
		ChatID:    ins.Target.ChatID,
		MessageID: ins.Target.MessageID,
		Text:      ins.Text,
		ParseMode: models.ParseModeMarkdown,
	}
	if ins.Keyboard != nil {
		params.ReplyMarkup = inlineKeyboard(ins.Keyboard)
	}

	_, err := m.EditMessageText(ctx, params)
	err = classifyEditError(err)
	if errors.Is(err, ErrRenderTargetStale) {
		h.logger.Debug("edit target stale, sending new message", slog.Int("message_id", ins.Target.MessageID))
		return h.send(ctx, m, chatID, ins)
	}
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// clear removes the keyboard of a retired message. Failures only get logged.
func (h *BotHandler) clear(ctx context.Context, m Messenger, target quiz.MessageRef) {
	if target.IsZero() {
		return
	}
	_, err := m.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      target.ChatID,
		MessageID:   target.MessageID,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
	if err = classifyEditError(err); err != nil {
		h.logger.Debug("could not clear keyboard",
			slog.Int("message_id", target.MessageID),
			slog.Any("error", err))
	}
}

func (h *BotHandler) sendText(ctx context.Context, m Messenger, chatID int64, text string) {
	if err := h.send(ctx, m, chatID, quiz.RenderInstruction{Mode: quiz.ModeSend, Text: text}); err != nil {
		h.logger.Error("failed to send message", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (h *BotHandler) answerCallback(ctx context.Context, m Messenger, id, text string) {
	_, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: id,
		Text:            text,
	})
	if err != nil {
		h.logger.Debug("failed to answer callback", slog.Any("error", err))
	}
}

// classifyEditError maps Bot API edit failures: an unchanged message is not
// an error, a deleted or too old one becomes ErrRenderTargetStale.
func classifyEditError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "message is not modified"):
		return nil
	case strings.Contains(msg, "message to edit not found"),
		strings.Contains(msg, "message can't be edited"),
		strings.Contains(msg, "MESSAGE_ID_INVALID"):
		return fmt.Errorf("%w: %v", ErrRenderTargetStale, err)
	default:
		return err
	}
}

func inlineKeyboard(kb *quiz.Keyboard) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Text,
				CallbackData: b.Action.Encode(),
			})
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
