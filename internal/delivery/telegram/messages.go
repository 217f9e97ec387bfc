// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
	"github.com/aliskhannn/holy-trivia-bot/internal/service"
)

// Plain messages, escaped on send.
const (
	msgInternalError      = "Something went wrong. Please try again later."
	msgUnknownCommand     = "Unknown command. Send /help to see what I can do."
	msgNoActiveQuiz       = "There is no quiz running. Send /play to start one."
	msgStaleButton        = "That question has already been answered."
	msgNotEnoughQuestions = "This category does not have enough questions yet. Try another one."
	msgTimezoneUsage      = "Usage: /timezone Europe/Berlin or /timezone UTC+3"
	msgTimezoneInvalid    = "I don't know that timezone. Try an IANA name like America/New_York or an offset like UTC-5."
	msgResetConfirm       = "This deletes your XP, level, streaks, achievements and quiz history. Are you sure?"
	msgResetDone          = "Your progress has been reset. A fresh start!"
	msgResetCancelled     = "Reset cancelled. Your progress is safe."
	msgPickCategory       = "📚 Choose a category:"
	msgQuizEnded          = "Quiz ended."
)

const (
	progressBarLength = 10
	leaderboardSize   = 10
)

func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

func welcomeMessage(name string, created bool) string {
	if name == "" {
		name = "friend"
	}

	greeting := fmt.Sprintf("Welcome back, %s!", name)
	if created {
		greeting = fmt.Sprintf("Welcome, %s!", name)
	}

	return strings.Join([]string{
		bold(greeting),
		"",
		md("Test your Bible knowledge with quick 10 question quizzes. Earn XP, level up, keep a daily streak and unlock achievements."),
		"",
		md("Send /play to begin or /help to see every command."),
	}, "\n")
}

func helpMessage(perQuestion time.Duration) string {
	lines := []string{
		bold("📖 Commands"),
		"",
		md("/play — start a quiz"),
		md("/stats — level, XP and history"),
		md("/streak — your daily streak this week"),
		md("/achievements — unlocked and in progress"),
		md("/leaderboard — top players"),
		md("/timezone — set the timezone your days are counted in"),
		md("/reset — start over from level 1"),
		"",
		italic(fmt.Sprintf("Each quiz has %d questions with %s per question.",
			entities.QuestionsPerSession, formatSeconds(perQuestion))),
	}
	return strings.Join(lines, "\n")
}

// buildProgressBar draws fraction (0..1) as a bar of length cells.
func buildProgressBar(fraction float64, length int) string {
	fraction = min(1, max(0, fraction))
	filled := int(fraction * float64(length))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", length-filled)
}

func formatSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%ds", max(0, secs))
}

func formatQuestion(q *entities.Question, index, total int, remaining time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", md(q.Category.Icon()), bold(fmt.Sprintf("Question %d/%d", index+1, total)))
	b.WriteString(md(q.Text))
	fmt.Fprintf(&b, "\n\n⏱ %s", md(formatSeconds(remaining)))
	return b.String()
}

func formatCountdown(q *entities.Question, index, total int, remaining time.Duration) string {
	return formatQuestion(q, index, total, remaining) + md(" — hurry!")
}

func formatAnswerFeedback(q *entities.Question, a *entities.AnswerRecord, streak int) string {
	var b strings.Builder

	switch {
	case a.SelectedIndex == entities.NoAnswer:
		b.WriteString(bold("⌛ Time's up!"))
	case a.IsCorrect:
		b.WriteString(bold("✅ Correct!"))
	default:
		b.WriteString(bold("❌ Not quite."))
	}

	b.WriteString("\n\n" + md(q.Text) + "\n")
	b.WriteString(md("Answer: ") + bold(q.CorrectAnswer()))

	if q.BibleReference != "" {
		b.WriteString("\n📖 " + italic(q.BibleReference))
	}
	if q.Explanation != "" {
		b.WriteString("\n\n" + md(q.Explanation))
	}
	if a.IsCorrect && streak >= 3 {
		b.WriteString("\n\n" + md(fmt.Sprintf("🔥 %d in a row!", streak)))
	}

	return b.String()
}

func formatPaused(index, total int, remaining time.Duration) string {
	return strings.Join([]string{
		bold("⏸ Paused"),
		"",
		md(fmt.Sprintf("Question %d/%d, %s left on the clock.", index+1, total, formatSeconds(remaining))),
	}, "\n")
}

func formatBreakdown(b progression.XPBreakdown) []string {
	lines := []string{md(fmt.Sprintf("Base: +%d XP", b.BaseXP))}
	if b.PerfectBonus > 0 {
		lines = append(lines, md(fmt.Sprintf("Perfect score: +%d XP", b.PerfectBonus)))
	}
	if b.SpeedBonus > 0 {
		lines = append(lines, md(fmt.Sprintf("Speed: +%d XP", b.SpeedBonus)))
	}
	if b.StreakBonus > 0 {
		lines = append(lines, md(fmt.Sprintf("Answer streak: +%d XP", b.StreakBonus)))
	}
	if b.CategoryBonus > 0 {
		lines = append(lines, md(fmt.Sprintf("Category: +%d XP", b.CategoryBonus)))
	}
	return lines
}

func formatCompletion(c *service.Completion) string {
	r := c.Result

	lines := []string{
		bold("🏁 Quiz complete!"),
		"",
		md(fmt.Sprintf("%s %s", r.Category.Icon(), r.Category.DisplayName())),
		md(fmt.Sprintf("Score: %d/%d (%.0f%%) in %s", r.CorrectCount, r.TotalQuestions, r.Accuracy()*100, r.FormattedTime())),
		"",
	}
	lines = append(lines, formatBreakdown(c.Breakdown)...)
	lines = append(lines, bold(fmt.Sprintf("Total: +%d XP", c.Breakdown.Total())))

	if c.Err != nil {
		lines = append(lines, "", md("⚠️ Your result could not be saved. Please try again later."))
		return strings.Join(lines, "\n")
	}

	if len(c.Unlocks.Achievements) > 0 {
		lines = append(lines, "", bold("🏆 Achievements unlocked"))
		for _, a := range c.Unlocks.Achievements {
			lines = append(lines, md(fmt.Sprintf("%s %s (+%d XP)", a.Icon, a.Name, a.XPReward)))
		}
	}

	p := c.Player
	if c.LeveledUp() {
		lines = append(lines, "", bold(fmt.Sprintf("🎉 Level up! %d → %d", c.LevelBefore(), p.Level)))
	}

	progress := progression.ProgressForXP(p.TotalXP)
	lines = append(lines,
		"",
		md(fmt.Sprintf("Level %d  %s  %d XP to go", p.Level, buildProgressBar(progress.FractionComplete, progressBarLength), progress.XPNeededForNext)),
		md(fmt.Sprintf("🔥 Day streak: %d", p.CurrentStreak)),
	)

	return strings.Join(lines, "\n")
}

func formatProfile(prof *service.Profile) string {
	p := prof.Player
	lvl := prof.Level

	lines := []string{
		bold("📊 Your stats"),
		"",
		md(fmt.Sprintf("Level %d, %d XP", p.Level, p.TotalXP)),
		md(fmt.Sprintf("%s %d/%d XP", buildProgressBar(lvl.FractionComplete, progressBarLength), lvl.XPIntoLevel, lvl.XPForNext-lvl.XPForCurrent)),
		"",
		md(fmt.Sprintf("🎮 Quizzes: %d", prof.Sessions.TotalSessions)),
		md(fmt.Sprintf("🎯 Accuracy: %.0f%%", p.OverallAccuracy()*100)),
		md(fmt.Sprintf("⭐ Perfect quizzes: %d", prof.Sessions.PerfectSessions)),
		md(fmt.Sprintf("🔥 Streak: %d (best %d)", prof.Streak.CurrentStreak, max(p.LongestStreak, prof.Sessions.BestStreak))),
	}

	if fav := prof.Sessions.FavoriteCategory; fav != nil {
		lines = append(lines, md(fmt.Sprintf("❤️ Favorite: %s %s", fav.Icon(), fav.DisplayName())))
	}

	if len(p.CategoryStats) > 0 {
		lines = append(lines, "", bold("By category"))
		for _, c := range entities.AllCategories {
			s, ok := p.CategoryStats[c]
			if !ok {
				continue
			}
			lines = append(lines, md(fmt.Sprintf("%s %s: %d played, best %d/10, %.0f%%",
				c.Icon(), c.DisplayName(), s.GamesPlayed, s.BestScore, s.Accuracy()*100)))
		}
	}

	if len(prof.Recent) > 0 {
		lines = append(lines, "", bold("Recent"))
		for _, r := range prof.Recent {
			lines = append(lines, md(fmt.Sprintf("%s %s %d/%d +%d XP",
				r.Date.In(p.Location()).Format("Jan 2"), r.Category.Icon(), r.CorrectCount, r.TotalQuestions, r.XPEarned)))
		}
	}

	return strings.Join(lines, "\n")
}

func dayIcon(s progression.DayState) string {
	switch s {
	case progression.DayCompleted:
		return "✅"
	case progression.DayTodayPending:
		return "⏳"
	case progression.DayMissed:
		return "▫️"
	default:
		return "⬜"
	}
}

func formatStreak(v *service.StreakView) string {
	names := make([]string, 0, len(v.Week))
	icons := make([]string, 0, len(v.Week))
	for _, d := range v.Week {
		names = append(names, d.DayName[:2])
		icons = append(icons, dayIcon(d.State()))
	}

	lines := []string{
		bold(v.Message),
		"",
		"`" + md(strings.Join(names, " ")) + "`",
		md(strings.Join(icons, "")),
		"",
		md(fmt.Sprintf("Longest streak: %d", v.LongestStreak)),
		md(fmt.Sprintf("Quizzes this week: %d", v.PlayedThisWeek)),
	}
	if v.Info.IsAtRisk() {
		lines = append(lines, "", md("⚠️ Play today or your streak resets tomorrow."))
	}
	return strings.Join(lines, "\n")
}

func formatAchievements(statuses []achievement.Status) string {
	unlocked := 0
	var done, pending []string
	for _, s := range statuses {
		a := s.Achievement
		if s.Unlocked {
			unlocked++
			done = append(done, md(fmt.Sprintf("%s %s — %s", a.Icon, a.Name, a.Description)))
			continue
		}
		pending = append(pending, md(fmt.Sprintf("🔒 %s — %s (%s, +%d XP)", a.Name, a.Description, s.Progress.Text(), a.XPReward)))
	}

	lines := []string{bold(fmt.Sprintf("🏆 Achievements %d/%d", unlocked, len(statuses)))}
	if len(done) > 0 {
		lines = append(lines, "")
		lines = append(lines, done...)
	}
	if len(pending) > 0 {
		lines = append(lines, "")
		lines = append(lines, pending...)
	}
	return strings.Join(lines, "\n")
}

func formatStandings(st *service.Standings, playerID int64) string {
	title := "🏆 Top players by XP"
	unit := "XP"
	if st.Board == redis.BoardStreak {
		title = "🔥 Longest streaks"
		unit = "days"
	}

	lines := []string{bold(title), ""}
	if len(st.Entries) == 0 {
		lines = append(lines, md("Nobody has played yet. Be the first!"))
		return strings.Join(lines, "\n")
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for _, e := range st.Entries {
		pos := fmt.Sprintf("%d.", e.Rank)
		if e.Rank <= int64(len(medals)) {
			pos = medals[e.Rank-1]
		}
		name := e.Username
		if name == "" {
			name = "anonymous"
		}
		line := md(fmt.Sprintf("%s %s — %d %s", pos, name, e.Score, unit))
		if e.PlayerID == playerID {
			line = bold(fmt.Sprintf("%s %s — %d %s", pos, name, e.Score, unit))
		}
		lines = append(lines, line)
	}

	if st.Rank > int64(len(st.Entries)) {
		lines = append(lines, "", md(fmt.Sprintf("You are #%d of %d.", st.Rank, st.Total)))
	}
	return strings.Join(lines, "\n")
}

func formatStreakReminder(r service.StreakReminder) string {
	return strings.Join([]string{
		bold("🔥 Don't lose your streak!"),
		"",
		md(r.Message),
		md("A quick quiz keeps it alive."),
	}, "\n")
}
