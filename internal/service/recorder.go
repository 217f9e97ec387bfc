package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

// TxRecorder implements SessionRecorder and ProgressResetter on top of the
// postgres repositories, each call in its own transaction.
type TxRecorder struct {
	tr Transactor
}

func NewTxRecorder(tr Transactor) *TxRecorder {
	return &TxRecorder{tr: tr}
}

// RecordSession saves the session and applies it to the locked player row:
// category stats, session XP, level, then day streak.
func (r *TxRecorder) RecordSession(
	ctx context.Context, result *entities.SessionResult, now time.Time,
) (*entities.Player, progression.SessionOutcome, error) {
	var (
		player  *entities.Player
		outcome progression.SessionOutcome
	)

	err := r.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		players := repository.NewPlayerRepository(tx)
		sessions := repository.NewSessionRepository(tx)

		p, err := players.GetForUpdate(ctx, result.PlayerID)
		if err != nil {
			return err
		}

		if err := sessions.Save(ctx, result); err != nil {
			return err
		}

		outcome = progression.ApplySessionResult(p, result, now)

		if err := players.Update(ctx, p); err != nil {
			return err
		}

		player = p
		return nil
	})
	if err != nil {
		return nil, progression.SessionOutcome{}, fmt.Errorf("record session: %w", err)
	}

	return player, outcome, nil
}

// ResetPlayer deletes the player's history and zeroes progression.
func (r *TxRecorder) ResetPlayer(ctx context.Context, playerID int64) error {
	return r.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return repository.NewResetRepository(tx).ResetPlayer(ctx, playerID)
	})
}
