package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

const recentSessionsLimit = 5

// Profile is everything the stats screen shows.
type Profile struct {
	Player   *entities.Player
	Level    progression.LevelProgress
	Sessions entities.SessionStats
	Streak   progression.StreakInfo
	Recent   []entities.SessionResult
}

// StreakView is the streak screen: status, message and the current week.
type StreakView struct {
	Info           progression.StreakInfo
	LongestStreak  int
	Message        string
	Week           []progression.DayStatus
	PlayedThisWeek int
}

// StatsService builds read-only views of a player's progression.
type StatsService struct {
	players      PlayerRepository
	sessions     SessionRepository
	achievements AchievementManager
	clock        func() time.Time
}

func NewStatsService(players PlayerRepository, sessions SessionRepository, achievements AchievementManager) *StatsService {
	return &StatsService{
		players:      players,
		sessions:     sessions,
		achievements: achievements,
		clock:        time.Now,
	}
}

func (s *StatsService) tracker(p *entities.Player) progression.StreakTracker {
	return progression.NewStreakTracker(s.clock, p.Location())
}

// streakInfo evaluates the day streak and stores the reset of a broken one,
// so the player row stops counting as a live streak.
func (s *StatsService) streakInfo(ctx context.Context, p *entities.Player) (progression.StreakInfo, error) {
	info := s.tracker(p).CalculateStreak(p.LastPlayedDate, p.CurrentStreak)
	if info.ShouldResetStreak && p.LastPlayedDate != nil {
		if err := s.players.ResetStreak(ctx, p.ID, *p.LastPlayedDate); err != nil {
			return info, fmt.Errorf("reset streak: %w", err)
		}
		p.CurrentStreak = 0
	}
	return info, nil
}

// Profile aggregates the player's level, history and streak.
func (s *StatsService) Profile(ctx context.Context, playerID int64) (*Profile, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}

	stats, err := s.sessions.Stats(ctx, playerID, p.Location())
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}

	recent, err := s.sessions.ListByPlayer(ctx, playerID, recentSessionsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}

	streak, err := s.streakInfo(ctx, p)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Player:   p,
		Level:    progression.ProgressForXP(p.TotalXP),
		Sessions: stats,
		Streak:   streak,
		Recent:   recent,
	}, nil
}

// Streak returns the streak status and the week view in the player's timezone.
func (s *StatsService) Streak(ctx context.Context, playerID int64) (*StreakView, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}

	info, err := s.streakInfo(ctx, p)
	if err != nil {
		return nil, err
	}
	week := s.tracker(p).WeekStreakStatus(p.LastPlayedDate, info.CurrentStreak)

	from := entities.StartOfWeek(s.clock(), p.Location())
	sessions, err := s.sessions.ListBetween(ctx, playerID, from, from.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("sessions this week: %w", err)
	}

	return &StreakView{
		Info:           info,
		LongestStreak:  p.LongestStreak,
		Message:        progression.StreakMessage(info.CurrentStreak, info.HasPlayedToday),
		Week:           week,
		PlayedThisWeek: len(sessions),
	}, nil
}

// Achievements lists the catalog with the player's progress.
func (s *StatsService) Achievements(ctx context.Context, playerID int64) ([]achievement.Status, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	s.achievements.Load(p)
	return s.achievements.Statuses(p), nil
}

// CategoryHistory returns the aggregate and the sessions of one category.
func (s *StatsService) CategoryHistory(
	ctx context.Context, playerID int64, category entities.Category,
) (entities.CategoryStat, []entities.SessionResult, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return entities.CategoryStat{}, nil, fmt.Errorf("get player: %w", err)
	}

	sessions, err := s.sessions.ListByCategory(ctx, playerID, category)
	if err != nil {
		return entities.CategoryStat{}, nil, fmt.Errorf("category sessions: %w", err)
	}

	return p.CategoryStats[category], sessions, nil
}
