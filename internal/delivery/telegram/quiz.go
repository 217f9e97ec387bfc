package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/quiz"
	"github.com/aliskhannn/holy-trivia-bot/internal/service"
)

// countdownShownAt is the only countdown step rendered; the rest would hit
// Telegram's edit rate limit.
const countdownShownAt = 5 * time.Second

// quizView is the message a running quiz is drawn in.
type quizView struct {
	messageID  int
	generation uint64
	index      int
	total      int
	question   *entities.Question
	answered   bool
}

// OnQuizUpdate renders quiz events as edits of one message per session.
func (h *Handler) OnQuizUpdate(_ context.Context, u service.Update) {
	ev := u.Event
	chatID := u.ChatID

	h.mu.Lock()
	view := h.quizzes[chatID]
	if view != nil && view.generation != ev.Generation {
		view = nil
	}
	h.mu.Unlock()

	switch ev.Kind {
	case quiz.EventQuestionPresented:
		text := formatQuestion(ev.Question, ev.Index, ev.Total, ev.Remaining)
		kb := buildAnswerKeyboard(ev.Question, ev.Generation, ev.Index)

		if view == nil {
			msg := newMessage(chatID, text)
			msg.ReplyMarkup = kb
			sent, err := h.bot.Send(msg)
			if err != nil {
				h.logger.Error("failed to send question", zap.Int64("chat_id", chatID), zap.Error(err))
				return
			}
			view = &quizView{messageID: sent.MessageID, generation: ev.Generation}
		} else {
			h.editQuiz(chatID, view.messageID, text, &kb)
		}

		h.mu.Lock()
		view.index, view.total, view.question, view.answered = ev.Index, ev.Total, ev.Question, false
		h.quizzes[chatID] = view
		h.mu.Unlock()

	case quiz.EventAnswerRecorded, quiz.EventTimedOut:
		if view == nil {
			return
		}
		h.mu.Lock()
		view.answered = true
		h.mu.Unlock()
		h.editQuiz(chatID, view.messageID, formatAnswerFeedback(ev.Question, ev.Answer, ev.AnswerStreak), nil)

	case quiz.EventCountdown:
		if view == nil || view.answered || ev.Remaining <= countdownShownAt-time.Second || ev.Remaining > countdownShownAt {
			return
		}
		kb := buildAnswerKeyboard(view.question, ev.Generation, view.index)
		h.editQuiz(chatID, view.messageID, formatCountdown(view.question, view.index, view.total, ev.Remaining), &kb)

	case quiz.EventPaused:
		if view == nil {
			return
		}
		kb := buildPausedKeyboard()
		h.editQuiz(chatID, view.messageID, formatPaused(ev.Index, ev.Total, ev.Remaining), &kb)

	case quiz.EventResumed:
		if view == nil {
			return
		}
		if view.answered {
			h.editQuiz(chatID, view.messageID, md("▶️ Resumed. Next question coming up…"), nil)
			return
		}
		kb := buildAnswerKeyboard(view.question, ev.Generation, view.index)
		h.editQuiz(chatID, view.messageID, formatQuestion(view.question, view.index, view.total, ev.Remaining), &kb)

	case quiz.EventCompleted:
		h.mu.Lock()
		delete(h.quizzes, chatID)
		h.mu.Unlock()

		if view != nil && !view.answered {
			h.editQuiz(chatID, view.messageID, md(msgQuizEnded), nil)
		}
		if u.Completion == nil {
			return
		}
		msg := newMessage(chatID, formatCompletion(u.Completion))
		msg.ReplyMarkup = buildQuizResultKeyboard()
		h.send(msg)
	}
}

func (h *Handler) editQuiz(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := newEdit(chatID, messageID, text)
	edit.ReplyMarkup = kb
	h.send(edit)
}

// SendStreakReminder implements service.ReminderNotifier.
func (h *Handler) SendStreakReminder(chatID int64, payload service.StreakReminder) error {
	msg := newMessage(chatID, formatStreakReminder(payload))
	msg.ReplyMarkup = buildReminderKeyboard()
	if _, err := h.bot.Send(msg); err != nil {
		return err
	}
	return nil
}
