package progression

import (
	"testing"
	"time"
)

// Wednesday.
var fixedNow = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func daysAgo(n int) *time.Time {
	t := fixedNow.AddDate(0, 0, -n)
	return &t
}

func TestCalculateStreak(t *testing.T) {
	tracker := NewStreakTracker(fixedClock, time.UTC)

	cases := []struct {
		name       string
		lastPlayed *time.Time
		streak     int
		want       StreakInfo
	}{
		{
			name:       "played today",
			lastPlayed: daysAgo(0),
			streak:     5,
			want:       StreakInfo{CurrentStreak: 5, HasPlayedToday: true, DaysUntilStreakBreak: 1},
		},
		{
			name:       "played yesterday",
			lastPlayed: daysAgo(1),
			streak:     5,
			want:       StreakInfo{CurrentStreak: 5, DaysUntilStreakBreak: 0},
		},
		{
			name:       "played three days ago",
			lastPlayed: daysAgo(3),
			streak:     5,
			want:       StreakInfo{CurrentStreak: 0, ShouldResetStreak: true, DaysUntilStreakBreak: 1},
		},
		{
			name:   "never played",
			streak: 0,
			want:   StreakInfo{DaysUntilStreakBreak: 1},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := tracker.CalculateStreak(c.lastPlayed, c.streak)
			if got != c.want {
				t.Fatalf("CalculateStreak() = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestCalculateStreakUsesCalendarDays(t *testing.T) {
	// 23:30 yesterday is less than an hour ago but still a different day.
	now := time.Date(2026, time.October, 14, 0, 15, 0, 0, time.UTC)
	last := time.Date(2026, time.October, 13, 23, 30, 0, 0, time.UTC)

	tracker := NewStreakTracker(func() time.Time { return now }, time.UTC)
	info := tracker.CalculateStreak(&last, 4)
	if info.HasPlayedToday || info.DaysUntilStreakBreak != 0 || info.CurrentStreak != 4 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestCalculateStreakRespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 20:00 UTC on the 13th is already the 14th at UTC+5.
	last := time.Date(2026, time.October, 13, 20, 0, 0, 0, time.UTC)

	tracker := NewStreakTracker(fixedClock, loc)
	if info := tracker.CalculateStreak(&last, 2); !info.HasPlayedToday {
		t.Fatalf("expected same local day, got %+v", info)
	}
}

func TestShouldSendStreakReminder(t *testing.T) {
	tracker := NewStreakTracker(fixedClock, time.UTC)

	cases := []struct {
		name       string
		lastPlayed *time.Time
		streak     int
		want       bool
	}{
		{"played yesterday", daysAgo(1), 3, true},
		{"played today", daysAgo(0), 3, false},
		{"streak already broken", daysAgo(2), 3, false},
		{"no streak", daysAgo(1), 0, false},
		{"never played", nil, 0, false},
	}

	for _, c := range cases {
		if got := tracker.ShouldSendStreakReminder(c.lastPlayed, c.streak); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestWeekStreakStatus(t *testing.T) {
	tracker := NewStreakTracker(fixedClock, time.UTC)

	week := tracker.WeekStreakStatus(daysAgo(1), 3)
	if len(week) != 7 {
		t.Fatalf("len(week) = %d, want 7", len(week))
	}

	want := []DayState{
		DayCompleted,    // Sun
		DayCompleted,    // Mon
		DayCompleted,    // Tue
		DayTodayPending, // Wed
		DayFuture,
		DayFuture,
		DayFuture,
	}
	for i, d := range week {
		if d.State() != want[i] {
			t.Errorf("day %d (%s): state %s, want %s", i, d.DayName, d.State(), want[i])
		}
	}
	if week[0].DayName != "Sun" || week[0].Date.Weekday() != time.Sunday {
		t.Fatalf("week does not start on Sunday: %+v", week[0])
	}
}

func TestWeekStreakStatusPlayedToday(t *testing.T) {
	tracker := NewStreakTracker(fixedClock, time.UTC)

	week := tracker.WeekStreakStatus(daysAgo(0), 2)
	want := []DayState{DayMissed, DayMissed, DayCompleted, DayCompleted, DayFuture, DayFuture, DayFuture}
	for i, d := range week {
		if d.State() != want[i] {
			t.Errorf("day %d: state %s, want %s", i, d.State(), want[i])
		}
	}
}

func TestStreakMessage(t *testing.T) {
	if got := StreakMessage(0, false); got != "Start a new streak today!" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := StreakMessage(4, true); got != "🔥 4 day streak!" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := StreakMessage(4, false); got != "Play today to keep your 4 day streak!" {
		t.Fatalf("unexpected message %q", got)
	}
}
