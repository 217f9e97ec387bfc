package progression

import (
	"sort"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// BestStreakFromHistory replays real session dates and returns the longest
// run of consecutive calendar days with at least one session. Several
// sessions on one day count once. This is independent of the week view,
// which only reconstructs the current streak.
func BestStreakFromHistory(dates []time.Time, loc *time.Location) int {
	if len(dates) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, entities.StartOfDay(d, loc))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, current := 1, 1
	for i := 1; i < len(days); i++ {
		switch entities.DaysBetween(days[i-1], days[i], loc) {
		case 0:
			continue
		case 1:
			current++
		default:
			current = 1
		}
		best = max(best, current)
	}

	return best
}

// SessionStatsFromHistory aggregates a player's stored sessions.
func SessionStatsFromHistory(sessions []entities.SessionResult, loc *time.Location) entities.SessionStats {
	stats := entities.SessionStats{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return stats
	}

	correct := 0
	perCategory := make(map[entities.Category]int)
	dates := make([]time.Time, 0, len(sessions))

	for i := range sessions {
		s := &sessions[i]
		stats.TotalXPEarned += s.XPEarned
		correct += s.CorrectCount
		if s.IsPerfect() {
			stats.PerfectSessions++
		}
		perCategory[s.Category]++
		dates = append(dates, s.Date)
	}

	stats.AverageScore = float64(correct) / float64(len(sessions))
	stats.BestStreak = BestStreakFromHistory(dates, loc)

	most := 0
	for _, c := range entities.AllCategories {
		if n := perCategory[c]; n > most {
			fav := c
			stats.FavoriteCategory, most = &fav, n
		}
	}

	return stats
}
