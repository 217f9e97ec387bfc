package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/quiz"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb, "")
		return
	}

	cd := decodeCallback(cb.Data)
	chatID := cb.Message.Chat.ID
	playerID := cb.From.ID

	switch cd.Action {
	case actionAnswer:
		a, ok := cd.answer()
		if !ok || !h.gameService.SubmitAnswer(playerID, a.Generation, a.Index, a.Answer) {
			h.answerCallback(cb, msgStaleButton)
			return
		}
		h.answerCallback(cb, "")

	case actionControl:
		h.handleControlCallback(cb, cd.param())

	case actionPlay:
		h.handlePlayCallback(ctx, cb, cd)

	case actionReset:
		h.handleResetCallback(ctx, cb, cd.param())

	case actionLeaderboard:
		board := redis.Board(cd.param())
		if board != redis.BoardStreak {
			board = redis.BoardXP
		}
		st, err := h.leaderboardService.Standings(ctx, board, playerID, leaderboardSize)
		if err != nil {
			h.logger.Error("failed to load leaderboard", zap.Error(err))
			h.answerCallback(cb, msgInternalError)
			return
		}
		edit := newEdit(chatID, cb.Message.MessageID, formatStandings(st, playerID))
		kb := buildLeaderboardKeyboard(board)
		edit.ReplyMarkup = &kb
		h.send(edit)
		h.answerCallback(cb, "")

	case actionMenu:
		h.answerCallback(cb, "")
		var fn HandlerFunc
		switch cd.param() {
		case menuStats:
			fn = h.handleStats(playerID)
		case menuStreak:
			fn = h.handleStreak(playerID)
		case menuAchievements:
			fn = h.handleAchievements(playerID)
		default:
			return
		}
		_ = h.withErrorHandling(fn)(ctx, chatID)

	default:
		h.answerCallback(cb, "")
	}
}

func (h *Handler) handleControlCallback(cb *tgbotapi.CallbackQuery, sub string) {
	var ok bool
	switch sub {
	case controlPause:
		ok = h.gameService.Pause(cb.From.ID)
	case controlResume:
		ok = h.gameService.Resume(cb.From.ID)
	case controlEnd:
		ok = h.gameService.End(cb.From.ID)
	}

	if !ok {
		h.answerCallback(cb, msgNoActiveQuiz)
		return
	}
	if sub == controlEnd {
		h.answerCallback(cb, msgQuizEnded)
		return
	}
	h.answerCallback(cb, "")
}

func (h *Handler) handlePlayCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) {
	chatID := cb.Message.Chat.ID

	category, ok := cd.category()
	if !ok {
		text, kb, err := h.renderCategoryPicker(ctx)
		if err != nil {
			h.logger.Error("failed to render categories", zap.Error(err))
			h.answerCallback(cb, msgInternalError)
			return
		}
		msg := newMessage(chatID, text)
		msg.ReplyMarkup = kb
		h.send(msg)
		h.answerCallback(cb, "")
		return
	}

	player, _, err := h.playerService.EnsurePlayer(ctx, cb.From.ID, chatID, displayName(cb.From))
	if err != nil {
		h.logger.Error("failed to ensure player", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		h.answerCallback(cb, msgInternalError)
		return
	}

	// The first question arrives through OnQuizUpdate.
	if _, err := h.gameService.StartQuiz(ctx, player, category); err != nil {
		if errors.Is(err, quiz.ErrInsufficientQuestions) {
			h.answerCallback(cb, msgNotEnoughQuestions)
			return
		}
		h.logger.Error("failed to start quiz",
			zap.Int64("user_id", player.ID),
			zap.String("category", string(category)),
			zap.Error(err),
		)
		h.answerCallback(cb, msgInternalError)
		return
	}

	h.answerCallback(cb, category.Icon()+" "+category.DisplayName())
}

func (h *Handler) handleResetCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, sub string) {
	chatID := cb.Message.Chat.ID
	text := msgResetCancelled

	if sub == resetConfirm {
		// End records a running quiz now instead of after the wipe.
		h.gameService.End(cb.From.ID)

		if err := h.playerService.Reset(ctx, cb.From.ID); err != nil {
			h.logger.Error("failed to reset player", zap.Int64("user_id", cb.From.ID), zap.Error(err))
			h.answerCallback(cb, msgInternalError)
			return
		}
		text = msgResetDone
	}

	h.send(newEdit(chatID, cb.Message.MessageID, md(text)))
	h.answerCallback(cb, "")
}
