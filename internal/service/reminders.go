package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/metrics"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

var errNotifierNotSet = errors.New("notifier not initialized")

// StreakReminder is the content of one reminder message.
type StreakReminder struct {
	PlayerID      int64
	Username      string
	CurrentStreak int
	Message       string
}

// ReminderOptions configures the reminder job.
type ReminderOptions struct {
	Schedule    string // cron spec, evaluated in UTC
	Concurrency int
	LocalHour   int // earliest local hour a reminder may go out
}

// ReminderService nudges players whose day streak ends unless they play today.
type ReminderService struct {
	players  PlayerRepository
	notifier ReminderNotifier
	metrics  *metrics.Metrics
	opts     ReminderOptions
	clock    func() time.Time
	logger   *zap.Logger
}

func NewReminderService(
	players PlayerRepository,
	m *metrics.Metrics,
	opts ReminderOptions,
	logger *zap.Logger,
) *ReminderService {
	if opts.Schedule == "" {
		opts.Schedule = "0 * * * *"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &ReminderService{
		players: players,
		metrics: m,
		opts:    opts,
		clock:   time.Now,
		logger:  logger,
	}
}

// SetNotifier sets the notifier (called after handler is created).
func (s *ReminderService) SetNotifier(notifier ReminderNotifier) {
	s.notifier = notifier
}

// Start runs the cron scheduler until ctx is done.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.opts.Schedule, func() {
		sent, err := s.SendDue(ctx)
		if err != nil {
			s.logger.Error("failed to send streak reminders", zap.Error(err))
			return
		}
		s.logger.Info("streak reminders processed", zap.Int("sent", sent))
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	s.logger.Info("reminder scheduler started", zap.String("schedule", s.opts.Schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
	return nil
}

// SendDue sends every reminder due now and returns how many went out.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, errNotifierNotSet
	}

	now := s.clock()

	// A reminder sent earlier today (local) went out at LocalHour or later,
	// so it is younger than this window. Older ones are from previous days.
	window := time.Duration(24-s.opts.LocalHour) * time.Hour
	candidates, err := s.players.ListStreakCandidates(ctx, now.Add(-window))
	if err != nil {
		return 0, fmt.Errorf("list streak candidates: %w", err)
	}

	sem := make(chan struct{}, s.opts.Concurrency)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)

	for _, p := range candidates {
		if s.resetIfBroken(ctx, p, now) {
			continue
		}
		if !s.isDue(p, now) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.remind(ctx, p, now); err != nil {
				s.logger.Error("failed to send streak reminder",
					zap.Int64("player_id", p.ID),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			sent++
			mu.Unlock()
		}()
	}

	wg.Wait()
	return sent, nil
}

// resetIfBroken stores the reset of a streak that already ended, so the
// player drops out of later candidate queries.
func (s *ReminderService) resetIfBroken(ctx context.Context, p *entities.Player, now time.Time) bool {
	tracker := progression.NewStreakTracker(func() time.Time { return now }, p.Location())
	if !tracker.CalculateStreak(p.LastPlayedDate, p.CurrentStreak).ShouldResetStreak {
		return false
	}
	if err := s.players.ResetStreak(ctx, p.ID, *p.LastPlayedDate); err != nil {
		s.logger.Warn("failed to reset broken streak", zap.Int64("player_id", p.ID), zap.Error(err))
	}
	return true
}

// isDue checks the streak is at risk, the local evening has started and no
// reminder went out on this local day yet.
func (s *ReminderService) isDue(p *entities.Player, now time.Time) bool {
	loc := p.Location()

	if now.In(loc).Hour() < s.opts.LocalHour {
		return false
	}
	if p.LastRemindedAt != nil && entities.DaysBetween(*p.LastRemindedAt, now, loc) == 0 {
		return false
	}

	tracker := progression.NewStreakTracker(func() time.Time { return now }, loc)
	return tracker.ShouldSendStreakReminder(p.LastPlayedDate, p.CurrentStreak)
}

func (s *ReminderService) remind(ctx context.Context, p *entities.Player, now time.Time) error {
	payload := StreakReminder{
		PlayerID:      p.ID,
		Username:      p.Username,
		CurrentStreak: p.CurrentStreak,
		Message:       progression.StreakMessage(p.CurrentStreak, false),
	}

	if err := s.notifier.SendStreakReminder(p.ChatID, payload); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if err := s.players.MarkReminded(ctx, p.ID, now); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}

	s.metrics.RemindersSent.Inc()
	return nil
}
