package telegram

import (
	"context"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/quiz"
	"github.com/aliskhannn/holy-trivia-bot/internal/service"
)

type PlayerService interface {
	EnsurePlayer(ctx context.Context, playerID, chatID int64, username string) (*entities.Player, bool, error)
	SetTimezone(ctx context.Context, playerID int64, tz string) error
	Reset(ctx context.Context, playerID int64) error
}

type GameService interface {
	StartQuiz(ctx context.Context, p *entities.Player, category entities.Category) (quiz.Snapshot, error)
	SubmitAnswer(playerID int64, generation uint64, index, answer int) bool
	Pause(playerID int64) bool
	Resume(playerID int64) bool
	End(playerID int64) bool
}

type StatsService interface {
	Profile(ctx context.Context, playerID int64) (*service.Profile, error)
	Streak(ctx context.Context, playerID int64) (*service.StreakView, error)
	Achievements(ctx context.Context, playerID int64) ([]achievement.Status, error)
}

type LeaderboardService interface {
	Standings(ctx context.Context, board redis.Board, playerID int64, limit int64) (*service.Standings, error)
}

type QuestionCatalog interface {
	Categories() []entities.Category
	QuestionCount(ctx context.Context, category entities.Category) (int, error)
}
