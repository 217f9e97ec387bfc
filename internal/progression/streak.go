package progression

import (
	"fmt"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// StreakInfo is the continuity status of a day streak as of "today".
type StreakInfo struct {
	CurrentStreak        int
	ShouldResetStreak    bool
	HasPlayedToday       bool
	DaysUntilStreakBreak int
}

// IsAtRisk reports a live streak that ends unless the player plays today.
func (s StreakInfo) IsAtRisk() bool {
	return s.CurrentStreak > 0 && !s.HasPlayedToday && s.DaysUntilStreakBreak == 0
}

// StreakTracker evaluates day streaks against an injectable clock.
type StreakTracker struct {
	now func() time.Time
	loc *time.Location
}

// NewStreakTracker creates a tracker counting days in loc.
// A nil clock uses time.Now, a nil location uses UTC.
func NewStreakTracker(now func() time.Time, loc *time.Location) StreakTracker {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return StreakTracker{now: now, loc: loc}
}

// CalculateStreak reports whether the stored streak is still alive today.
func (t StreakTracker) CalculateStreak(lastPlayed *time.Time, currentStreak int) StreakInfo {
	if lastPlayed == nil {
		return StreakInfo{DaysUntilStreakBreak: 1}
	}

	switch days := entities.DaysBetween(*lastPlayed, t.now(), t.loc); {
	case days <= 0:
		return StreakInfo{
			CurrentStreak:        currentStreak,
			HasPlayedToday:       true,
			DaysUntilStreakBreak: 1,
		}
	case days == 1:
		return StreakInfo{
			CurrentStreak:        currentStreak,
			DaysUntilStreakBreak: 0,
		}
	default:
		return StreakInfo{
			ShouldResetStreak:    true,
			DaysUntilStreakBreak: 1,
		}
	}
}

// ShouldSendStreakReminder is true when the player played yesterday but not yet today.
func (t StreakTracker) ShouldSendStreakReminder(lastPlayed *time.Time, currentStreak int) bool {
	if currentStreak <= 0 {
		return false
	}
	return t.CalculateStreak(lastPlayed, currentStreak).IsAtRisk()
}

// DayState is how a weekday is drawn in the week view.
type DayState string

const (
	DayCompleted    DayState = "completed"
	DayTodayPending DayState = "today_pending"
	DayMissed       DayState = "missed"
	DayFuture       DayState = "future"
)

// DayStatus is one cell of the week view.
type DayStatus struct {
	Date      time.Time
	DayName   string
	IsToday   bool
	IsFuture  bool
	WasPlayed bool
}

// State picks the display state; future wins over played, played over today.
func (d DayStatus) State() DayState {
	switch {
	case d.IsFuture:
		return DayFuture
	case d.WasPlayed:
		return DayCompleted
	case d.IsToday:
		return DayTodayPending
	default:
		return DayMissed
	}
}

// WeekStreakStatus returns the seven days of the current Sunday-start week.
//
// Played days are reconstructed as the currentStreak days ending on
// lastPlayed, assuming the streak was never broken. Session history is
// not consulted; use BestStreakFromHistory for a replay of real sessions.
func (t StreakTracker) WeekStreakStatus(lastPlayed *time.Time, currentStreak int) []DayStatus {
	now := t.now()
	today := entities.StartOfDay(now, t.loc)
	weekStart := entities.StartOfWeek(now, t.loc)

	played := make(map[string]struct{}, currentStreak)
	if lastPlayed != nil {
		last := entities.StartOfDay(*lastPlayed, t.loc)
		for i := 0; i < currentStreak; i++ {
			played[dayKey(last.AddDate(0, 0, -i))] = struct{}{}
		}
	}

	week := make([]DayStatus, 0, 7)
	for offset := 0; offset < 7; offset++ {
		day := weekStart.AddDate(0, 0, offset)
		_, wasPlayed := played[dayKey(day)]
		week = append(week, DayStatus{
			Date:      day,
			DayName:   day.Weekday().String()[:3],
			IsToday:   day.Equal(today),
			IsFuture:  day.After(today),
			WasPlayed: wasPlayed,
		})
	}

	return week
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// StreakMessage is the one-line streak status shown to the player.
func StreakMessage(currentStreak int, hasPlayedToday bool) string {
	switch {
	case currentStreak == 0:
		return "Start a new streak today!"
	case hasPlayedToday:
		return fmt.Sprintf("🔥 %d day streak!", currentStreak)
	default:
		return fmt.Sprintf("Play today to keep your %d day streak!", currentStreak)
	}
}
