package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type PlayerRepository interface {
	Create(ctx context.Context, p *entities.Player) (bool, error)
	Get(ctx context.Context, playerID int64) (*entities.Player, error)
	Update(ctx context.Context, p *entities.Player) error
	SetTimezone(ctx context.Context, playerID int64, tz string) error
	ListStreakCandidates(ctx context.Context, since time.Time) ([]*entities.Player, error)
	MarkReminded(ctx context.Context, playerID int64, at time.Time) error
	ResetStreak(ctx context.Context, playerID int64, lastPlayed time.Time) error
	TopByXP(ctx context.Context, limit int) ([]*entities.Player, error)
}

type SessionRepository interface {
	ListByPlayer(ctx context.Context, playerID int64, limit int) ([]entities.SessionResult, error)
	ListByCategory(ctx context.Context, playerID int64, category entities.Category) ([]entities.SessionResult, error)
	ListBetween(ctx context.Context, playerID int64, from, to time.Time) ([]entities.SessionResult, error)
	Stats(ctx context.Context, playerID int64, loc *time.Location) (entities.SessionStats, error)
}

// SessionRecorder stores a completed session and folds it into the player
// as one unit of work.
type SessionRecorder interface {
	RecordSession(
		ctx context.Context, r *entities.SessionResult, now time.Time,
	) (*entities.Player, progression.SessionOutcome, error)
}

// ProgressResetter wipes a player's progression as one unit of work.
type ProgressResetter interface {
	ResetPlayer(ctx context.Context, playerID int64) error
}

type AchievementManager interface {
	Load(p *entities.Player)
	Forget(playerID int64)
	Check(ctx context.Context, p *entities.Player, after *entities.SessionResult) (achievement.Unlocks, error)
	Statuses(p *entities.Player) []achievement.Status
}

type Leaderboard interface {
	Upsert(ctx context.Context, p *entities.Player) error
	Remove(ctx context.Context, playerID int64) error
	Top(ctx context.Context, board redis.Board, limit int64) ([]redis.Entry, error)
	Rank(ctx context.Context, board redis.Board, playerID int64) (int64, error)
	Size(ctx context.Context, board redis.Board) (int64, error)
}

// ReminderNotifier sends streak reminders to players.
type ReminderNotifier interface {
	SendStreakReminder(chatID int64, payload StreakReminder) error
}
