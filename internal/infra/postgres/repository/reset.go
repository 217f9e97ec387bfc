package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres"
)

// ResetRepository wipes a player's progression. Run it inside a transaction.
type ResetRepository struct {
	db postgres.DBTX
}

func NewResetRepository(db postgres.DBTX) *ResetRepository {
	return &ResetRepository{db: db}
}

// ResetPlayer deletes sessions, category stats and achievements, then zeroes
// the player's counters. Identity, chat and timezone are kept.
func (s *ResetRepository) ResetPlayer(ctx context.Context, playerID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM quiz_sessions WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("delete quiz_sessions: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM player_category_stats WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("delete player_category_stats: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM player_achievements WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("delete player_achievements: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE players SET
			total_xp = 0,
			level = 1,
			current_streak = 0,
			longest_streak = 0,
			last_played_at = NULL,
			last_reminded_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, playerID)
	if err != nil {
		return fmt.Errorf("reset player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}

	return nil
}
