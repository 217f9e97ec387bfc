// Package feedback delivers fire-and-forget cues for game moments such as a
// correct answer or a level up. Callers never wait on a Notifier.
package feedback

import (
	"context"

	"go.uber.org/zap"
)

// Cue names a feedback moment.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CueIncorrect Cue = "incorrect"
	CueLevelUp   Cue = "level_up"
	CueStreak    Cue = "streak"
	CueCountdown Cue = "countdown"
	CuePerfect   Cue = "perfect"
)

// Notifier receives cues for a player. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, playerID int64, cue Cue)
}

// Nop discards every cue.
type Nop struct{}

func (Nop) Notify(context.Context, int64, Cue) {}

// Log writes cues to a zap logger at debug level.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, playerID int64, cue Cue) {
	l.logger.Debug("feedback cue", zap.Int64("player_id", playerID), zap.String("cue", string(cue)))
}

// Multi fans a cue out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, playerID int64, cue Cue) {
	for _, n := range m {
		n.Notify(ctx, playerID, cue)
	}
}
