package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/service"
)

func (h *Handler) handlePlay() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text, kb, err := h.renderCategoryPicker(ctx)
		if err != nil {
			return err
		}
		msg := newMessage(chatID, text)
		msg.ReplyMarkup = kb
		h.send(msg)
		return nil
	}
}

func (h *Handler) renderCategoryPicker(ctx context.Context) (string, tgbotapi.InlineKeyboardMarkup, error) {
	categories := h.questions.Categories()
	options := make([]categoryOption, 0, len(categories))
	for _, c := range categories {
		n, err := h.questions.QuestionCount(ctx, c)
		if err != nil {
			return "", tgbotapi.InlineKeyboardMarkup{}, err
		}
		options = append(options, categoryOption{Category: c, Questions: n})
	}
	return md(msgPickCategory), buildCategoryKeyboard(options), nil
}

func (h *Handler) handleStats(playerID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		prof, err := h.statsService.Profile(ctx, playerID)
		if err != nil {
			return err
		}
		h.send(newMessage(chatID, formatProfile(prof)))
		return nil
	}
}

func (h *Handler) handleStreak(playerID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		view, err := h.statsService.Streak(ctx, playerID)
		if err != nil {
			return err
		}
		h.send(newMessage(chatID, formatStreak(view)))
		return nil
	}
}

func (h *Handler) handleAchievements(playerID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		statuses, err := h.statsService.Achievements(ctx, playerID)
		if err != nil {
			return err
		}
		h.send(newMessage(chatID, formatAchievements(statuses)))
		return nil
	}
}

func (h *Handler) handleLeaderboard(playerID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		st, err := h.leaderboardService.Standings(ctx, redis.BoardXP, playerID, leaderboardSize)
		if err != nil {
			return err
		}
		msg := newMessage(chatID, formatStandings(st, playerID))
		msg.ReplyMarkup = buildLeaderboardKeyboard(redis.BoardXP)
		h.send(msg)
		return nil
	}
}

func (h *Handler) handleTimezone(playerID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		tz := strings.TrimSpace(args)
		if tz == "" {
			h.send(newMessage(chatID, md(msgTimezoneUsage)))
			return nil
		}

		err := h.playerService.SetTimezone(ctx, playerID, tz)
		if errors.Is(err, service.ErrInvalidTimezone) {
			h.send(newMessage(chatID, md(msgTimezoneInvalid)))
			return nil
		}
		if err != nil {
			return err
		}

		h.send(newMessage(chatID, md("🕰 Timezone set to ")+bold(tz)))
		return nil
	}
}
