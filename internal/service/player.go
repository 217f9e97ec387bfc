package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres/repository"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

// PlayerService manages player identity and settings.
type PlayerService struct {
	players         PlayerRepository
	resetter        ProgressResetter
	achievements    AchievementManager
	leaderboard     Leaderboard
	defaultTimezone string
	clock           func() time.Time
	logger          *zap.Logger
}

func NewPlayerService(
	players PlayerRepository,
	resetter ProgressResetter,
	achievements AchievementManager,
	leaderboard Leaderboard,
	defaultTimezone string,
	logger *zap.Logger,
) *PlayerService {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &PlayerService{
		players:         players,
		resetter:        resetter,
		achievements:    achievements,
		leaderboard:     leaderboard,
		defaultTimezone: defaultTimezone,
		clock:           time.Now,
		logger:          logger,
	}
}

// EnsurePlayer returns the player, creating it on first contact. A missing
// player is the normal first-launch state, not an error.
func (s *PlayerService) EnsurePlayer(
	ctx context.Context, playerID, chatID int64, username string,
) (*entities.Player, bool, error) {
	p, err := s.players.Get(ctx, playerID)
	switch {
	case err == nil:
		if p.ChatID != chatID || (username != "" && p.Username != username) {
			p.ChatID = chatID
			if username != "" {
				p.Username = username
			}
			p.UpdatedAt = s.clock()
			if err := s.players.Update(ctx, p); err != nil {
				return nil, false, fmt.Errorf("update player: %w", err)
			}
		}
		return p, false, nil

	case !errors.Is(err, repository.ErrPlayerNotFound):
		return nil, false, fmt.Errorf("get player: %w", err)
	}

	p = entities.NewPlayer(playerID, chatID, username)
	p.Timezone = s.defaultTimezone

	created, err := s.players.Create(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("create player: %w", err)
	}
	if !created {
		// Lost a race with a concurrent first update.
		p, err = s.players.Get(ctx, playerID)
		if err != nil {
			return nil, false, fmt.Errorf("get player: %w", err)
		}
		return p, false, nil
	}

	s.achievements.Load(p)
	if err := s.leaderboard.Upsert(ctx, p); err != nil {
		s.logger.Warn("failed to add player to leaderboard", zap.Int64("player_id", playerID), zap.Error(err))
	}

	s.logger.Info("player created", zap.Int64("player_id", playerID))
	return p, true, nil
}

// Get returns an existing player or repository.ErrPlayerNotFound.
func (s *PlayerService) Get(ctx context.Context, playerID int64) (*entities.Player, error) {
	return s.players.Get(ctx, playerID)
}

// SetTimezone validates and stores the player's timezone.
func (s *PlayerService) SetTimezone(ctx context.Context, playerID int64, tz string) error {
	if _, err := entities.ParseTimezoneLocation(tz); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	if err := s.players.SetTimezone(ctx, playerID, tz); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

// Reset wipes all progression of the player.
func (s *PlayerService) Reset(ctx context.Context, playerID int64) error {
	if err := s.resetter.ResetPlayer(ctx, playerID); err != nil {
		return fmt.Errorf("reset player: %w", err)
	}

	s.achievements.Forget(playerID)

	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get player: %w", err)
	}
	if err := s.leaderboard.Upsert(ctx, p); err != nil {
		s.logger.Warn("failed to refresh leaderboard after reset", zap.Int64("player_id", playerID), zap.Error(err))
	}

	s.logger.Info("player progress reset", zap.Int64("player_id", playerID))
	return nil
}
