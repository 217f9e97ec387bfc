package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

func session(playerID int64, at time.Time, c entities.Category, correct int) entities.SessionResult {
	return entities.SessionResult{
		ID:             uuid.New(),
		PlayerID:       playerID,
		Date:           at,
		Category:       c,
		CorrectCount:   correct,
		TotalQuestions: entities.QuestionsPerSession,
		XPEarned:       correct * 10,
	}
}

// newStatsFixture plays three sessions on Mon, Tue and Wed of the week of
// 2026-10-14 and returns the service with its clock on Wednesday evening.
func newStatsFixture() (*StatsService, *memStore) {
	store := newMemStore()
	p := entities.NewPlayer(1, 1, "")
	store.put(p)

	for _, s := range []entities.SessionResult{
		session(1, evening.AddDate(0, 0, -2), entities.CategoryGospels, 10),
		session(1, evening.AddDate(0, 0, -1), entities.CategoryCharacters, 6),
		session(1, evening, entities.CategoryGospels, 8),
	} {
		if _, _, err := store.RecordSession(context.Background(), &s, s.Date); err != nil {
			panic(err)
		}
	}

	svc := NewStatsService(store, store, achievement.NewManager(store, nil))
	svc.clock = func() time.Time { return evening }
	return svc, store
}

func TestProfile(t *testing.T) {
	svc, _ := newStatsFixture()

	prof, err := svc.Profile(context.Background(), 1)
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}

	if prof.Player.TotalXP != 240 || prof.Level != progression.ProgressForXP(240) {
		t.Fatalf("xp = %d, level = %+v", prof.Player.TotalXP, prof.Level)
	}
	if prof.Sessions.TotalSessions != 3 || prof.Sessions.PerfectSessions != 1 || prof.Sessions.BestStreak != 3 {
		t.Fatalf("session stats = %+v", prof.Sessions)
	}
	if fav := prof.Sessions.FavoriteCategory; fav == nil || *fav != entities.CategoryGospels {
		t.Fatalf("favorite = %v, want gospels", fav)
	}
	if !prof.Streak.HasPlayedToday || prof.Streak.CurrentStreak != 3 {
		t.Fatalf("streak = %+v", prof.Streak)
	}
	if len(prof.Recent) != 3 || !prof.Recent[0].Date.Equal(evening) {
		t.Fatalf("recent sessions not newest first")
	}
}

func TestStreakView(t *testing.T) {
	svc, _ := newStatsFixture()

	view, err := svc.Streak(context.Background(), 1)
	if err != nil {
		t.Fatalf("Streak() error: %v", err)
	}

	if view.Message != "🔥 3 day streak!" {
		t.Fatalf("message = %q", view.Message)
	}
	if view.PlayedThisWeek != 3 || view.LongestStreak != 3 {
		t.Fatalf("view = %+v", view)
	}

	want := []progression.DayState{
		progression.DayMissed,
		progression.DayCompleted,
		progression.DayCompleted,
		progression.DayCompleted,
		progression.DayFuture,
		progression.DayFuture,
		progression.DayFuture,
	}
	for i, d := range view.Week {
		if d.State() != want[i] {
			t.Fatalf("%s = %s, want %s", d.DayName, d.State(), want[i])
		}
	}
}

func TestStreakViewBrokenStreak(t *testing.T) {
	svc, _ := newStatsFixture()
	svc.clock = func() time.Time { return evening.AddDate(0, 0, 3) }

	view, err := svc.Streak(context.Background(), 1)
	if err != nil {
		t.Fatalf("Streak() error: %v", err)
	}
	if !view.Info.ShouldResetStreak || view.Info.CurrentStreak != 0 {
		t.Fatalf("info = %+v", view.Info)
	}
	if view.Message != "Start a new streak today!" {
		t.Fatalf("message = %q", view.Message)
	}
}

func TestBrokenStreakIsStored(t *testing.T) {
	svc, store := newStatsFixture()
	ctx := context.Background()

	if _, err := svc.Profile(ctx, 1); err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if store.streakResets != 0 {
		t.Fatalf("live streak was reset")
	}

	later := evening.AddDate(0, 0, 3)
	svc.clock = func() time.Time { return later }
	if _, err := svc.Profile(ctx, 1); err != nil {
		t.Fatalf("Profile() error: %v", err)
	}

	p, _ := store.Get(ctx, 1)
	if p.CurrentStreak != 0 || p.LongestStreak != 3 {
		t.Fatalf("stored streak = %d (longest %d), want 0 (3)", p.CurrentStreak, p.LongestStreak)
	}
	candidates, _ := store.ListStreakCandidates(ctx, later)
	if len(candidates) != 0 {
		t.Fatalf("broken streak still a reminder candidate")
	}
}

func TestAchievementsAndCategoryHistory(t *testing.T) {
	svc, _ := newStatsFixture()
	ctx := context.Background()

	statuses, err := svc.Achievements(ctx, 1)
	if err != nil {
		t.Fatalf("Achievements() error: %v", err)
	}
	if len(statuses) != len(entities.Achievements) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(entities.Achievements))
	}
	if s := statuses[0]; s.Achievement.ID != "streak_7" || s.Progress.Current != 3 {
		t.Fatalf("streak_7 status = %+v", s)
	}

	stat, sessions, err := svc.CategoryHistory(ctx, 1, entities.CategoryGospels)
	if err != nil {
		t.Fatalf("CategoryHistory() error: %v", err)
	}
	if stat.GamesPlayed != 2 || stat.BestScore != 10 || len(sessions) != 2 {
		t.Fatalf("stat = %+v, sessions = %d", stat, len(sessions))
	}

	if _, err := svc.Profile(ctx, 404); !errors.Is(err, repository.ErrPlayerNotFound) {
		t.Fatalf("error = %v, want ErrPlayerNotFound", err)
	}
}
