package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
)

const DefaultLeaderboardSize = 10

// Standings is the top of a board plus the caller's own position.
type Standings struct {
	Board   redis.Board
	Entries []redis.Entry
	Rank    int64 // 0 when the player is not ranked
	Total   int64
}

// LeaderboardService reads the cached boards and seeds them from postgres.
type LeaderboardService struct {
	board   Leaderboard
	players PlayerRepository
	logger  *zap.Logger
}

func NewLeaderboardService(board Leaderboard, players PlayerRepository, logger *zap.Logger) *LeaderboardService {
	return &LeaderboardService{board: board, players: players, logger: logger}
}

// Standings returns the best `limit` players of a board and playerID's rank,
// even when the player is outside the top.
func (s *LeaderboardService) Standings(
	ctx context.Context, board redis.Board, playerID int64, limit int64,
) (*Standings, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	entries, err := s.board.Top(ctx, board, limit)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}

	rank, err := s.board.Rank(ctx, board, playerID)
	if err != nil {
		return nil, fmt.Errorf("player rank: %w", err)
	}

	total, err := s.board.Size(ctx, board)
	if err != nil {
		return nil, fmt.Errorf("board size: %w", err)
	}

	return &Standings{Board: board, Entries: entries, Rank: rank, Total: total}, nil
}

// Rebuild reloads the boards from the player table. Called at startup so a
// flushed cache heals itself.
func (s *LeaderboardService) Rebuild(ctx context.Context, limit int) error {
	players, err := s.players.TopByXP(ctx, limit)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}

	for _, p := range players {
		if err := s.board.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed player %d: %w", p.ID, err)
		}
	}

	s.logger.Info("leaderboard rebuilt", zap.Int("players", len(players)))
	return nil
}
