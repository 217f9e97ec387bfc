package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
)

var answerLetters = [entities.AnswersPerQuestion]string{"A", "B", "C", "D"}

// categoryOption is one row of the category picker.
type categoryOption struct {
	Category  entities.Category
	Questions int
}

// buildCategoryKeyboard lists playable categories, one per row.
func buildCategoryKeyboard(options []categoryOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		if o.Questions < entities.QuestionsPerSession {
			continue
		}
		label := fmt.Sprintf("%s %s", o.Category.Icon(), o.Category.DisplayName())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildPlayCallback(o.Category)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildAnswerKeyboard builds one button per answer plus the pause and end controls.
func buildAnswerKeyboard(q *entities.Question, generation uint64, index int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Answers)+1)
	for i, answer := range q.Answers {
		label := answer
		if i < len(answerLetters) {
			label = answerLetters[i] + ". " + answer
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildAnswerCallback(generation, index, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏸ Pause", buildControlCallback(controlPause)),
		tgbotapi.NewInlineKeyboardButtonData("⏹ End", buildControlCallback(controlEnd)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildPausedKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Resume", buildControlCallback(controlResume)),
			tgbotapi.NewInlineKeyboardButtonData("⏹ End", buildControlCallback(controlEnd)),
		),
	)
}

// buildQuizResultKeyboard builds keyboard for quiz results screen.
func buildQuizResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Play again", buildPlayCallback("")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", buildMenuCallback(menuStats)),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Achievements", buildMenuCallback(menuAchievements)),
		),
	)
}

func buildLeaderboardKeyboard(current redis.Board) tgbotapi.InlineKeyboardMarkup {
	other, label := redis.BoardStreak, "🔥 Streaks"
	if current == redis.BoardStreak {
		other, label = redis.BoardXP, "🏆 XP"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildLeaderboardCallback(other)),
		),
	)
}

func buildResetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, reset", buildResetCallback(resetConfirm)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", buildResetCallback(resetCancel)),
		),
	)
}

func buildReminderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Play now", buildPlayCallback("")),
			tgbotapi.NewInlineKeyboardButtonData("🔥 My streak", buildMenuCallback(menuStreak)),
		),
	)
}
