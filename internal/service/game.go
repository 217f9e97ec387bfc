package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/feedback"
	"github.com/aliskhannn/holy-trivia-bot/internal/metrics"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
	"github.com/aliskhannn/holy-trivia-bot/internal/quiz"
)

const finalizeTimeout = 10 * time.Second

// QuizTiming configures every runner the game service creates.
type QuizTiming struct {
	QuestionTimeout time.Duration
	AdvanceDelay    time.Duration
	TickInterval    time.Duration
}

// Completion is what finishing a session changed for the player.
// Err is set when the session could not be recorded; the other player
// fields are then empty.
type Completion struct {
	Result    *entities.SessionResult
	Breakdown progression.XPBreakdown
	Player    *entities.Player
	Outcome   progression.SessionOutcome
	Unlocks   achievement.Unlocks
	Err       error
}

// LevelBefore is the level before the session was applied.
func (c *Completion) LevelBefore() int { return c.Outcome.LevelBefore }

// LeveledUp reports a level gained from session or achievement XP.
func (c *Completion) LeveledUp() bool {
	return c.Player != nil && c.Player.Level > c.Outcome.LevelBefore
}

// Update is one quiz event addressed to a chat.
type Update struct {
	ChatID     int64
	Event      quiz.Event
	Completion *Completion // only for quiz.EventCompleted
}

// QuizSink renders quiz updates. It is called from the runner's goroutine
// and must not call back into GameService for the same player.
type QuizSink interface {
	OnQuizUpdate(ctx context.Context, u Update)
}

// GameService runs one quiz per player and turns completed sessions into
// player progression.
type GameService struct {
	ctx          context.Context
	source       quiz.QuestionSource
	recorder     SessionRecorder
	achievements AchievementManager
	leaderboard  Leaderboard
	metrics      *metrics.Metrics
	cues         feedback.Notifier
	timing       QuizTiming
	clock        func() time.Time
	registry     *quiz.Registry
	logger       *zap.Logger

	mu    sync.RWMutex
	sink  QuizSink
	chats map[int64]int64
}

// NewGameService creates the service. ctx bounds every tick loop it starts.
func NewGameService(
	ctx context.Context,
	source quiz.QuestionSource,
	recorder SessionRecorder,
	achievements AchievementManager,
	leaderboard Leaderboard,
	m *metrics.Metrics,
	cues feedback.Notifier,
	timing QuizTiming,
	logger *zap.Logger,
) *GameService {
	if cues == nil {
		cues = feedback.Nop{}
	}
	s := &GameService{
		ctx:          ctx,
		source:       source,
		recorder:     recorder,
		achievements: achievements,
		leaderboard:  leaderboard,
		metrics:      m,
		cues:         cues,
		timing:       timing,
		clock:        time.Now,
		logger:       logger,
		chats:        make(map[int64]int64),
	}
	s.registry = quiz.NewRegistry(s.newRunner)
	return s
}

// SetSink sets the renderer for quiz updates (called after handler is created).
func (s *GameService) SetSink(sink QuizSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *GameService) newRunner(playerID int64) *quiz.Runner {
	engine := quiz.NewEngine(playerID, s.source, quiz.Options{
		QuestionTimeout: s.timing.QuestionTimeout,
		AdvanceDelay:    s.timing.AdvanceDelay,
	})
	return quiz.NewRunner(s.ctx, engine, s.clock, s.timing.TickInterval, s.listen)
}

// StartQuiz begins a new session for the player, retiring any running one.
func (s *GameService) StartQuiz(ctx context.Context, p *entities.Player, category entities.Category) (quiz.Snapshot, error) {
	runner := s.registry.GetOrCreate(p.ID)
	wasRunning := isRunning(runner.Snapshot().State)

	s.mu.Lock()
	s.chats[p.ID] = p.ChatID
	s.mu.Unlock()

	snap, err := runner.Start(ctx, category)
	if err != nil {
		return quiz.Snapshot{}, fmt.Errorf("start quiz: %w", err)
	}

	s.metrics.SessionsStarted.WithLabelValues(string(category)).Inc()
	if !wasRunning {
		s.metrics.ActiveSessions.Inc()
	}

	s.logger.Info("quiz started",
		zap.Int64("player_id", p.ID),
		zap.String("category", string(category)),
		zap.Uint64("generation", snap.Generation),
	)
	return snap, nil
}

// SubmitAnswer answers question index of session generation. It reports
// whether the answer was accepted; stale buttons are dropped.
func (s *GameService) SubmitAnswer(playerID int64, generation uint64, index, answer int) bool {
	runner, ok := s.registry.Get(playerID)
	if !ok {
		return false
	}
	return runner.Submit(generation, index, answer)
}

func (s *GameService) Pause(playerID int64) bool {
	runner, ok := s.registry.Get(playerID)
	return ok && runner.Pause()
}

func (s *GameService) Resume(playerID int64) bool {
	runner, ok := s.registry.Get(playerID)
	return ok && runner.Resume()
}

// End completes the running session early with the answers given so far.
func (s *GameService) End(playerID int64) bool {
	runner, ok := s.registry.Get(playerID)
	return ok && runner.End()
}

// Snapshot returns the player's current quiz view.
func (s *GameService) Snapshot(playerID int64) (quiz.Snapshot, bool) {
	runner, ok := s.registry.Get(playerID)
	if !ok {
		return quiz.Snapshot{}, false
	}
	return runner.Snapshot(), true
}

// Shutdown halts every tick loop. Running sessions are abandoned.
func (s *GameService) Shutdown() {
	s.registry.StopAll()
}

func isRunning(state quiz.State) bool {
	return state == quiz.StateActive || state == quiz.StatePaused
}

func (s *GameService) listen(ev quiz.Event) {
	u := Update{Event: ev}

	switch ev.Kind {
	case quiz.EventAnswerRecorded:
		if ev.Answer.IsCorrect {
			s.metrics.AnswersTotal.WithLabelValues("correct").Inc()
			s.cues.Notify(s.ctx, ev.PlayerID, feedback.CueCorrect)
			if isStreakMilestone(ev.AnswerStreak) {
				s.cues.Notify(s.ctx, ev.PlayerID, feedback.CueStreak)
			}
		} else {
			s.metrics.AnswersTotal.WithLabelValues("incorrect").Inc()
			s.cues.Notify(s.ctx, ev.PlayerID, feedback.CueIncorrect)
		}

	case quiz.EventTimedOut:
		s.metrics.AnswersTotal.WithLabelValues("timeout").Inc()
		s.cues.Notify(s.ctx, ev.PlayerID, feedback.CueIncorrect)

	case quiz.EventCountdown:
		s.cues.Notify(s.ctx, ev.PlayerID, feedback.CueCountdown)

	case quiz.EventCompleted:
		s.metrics.ActiveSessions.Dec()
		u.Completion = s.finalize(ev)
	}

	s.mu.RLock()
	sink := s.sink
	u.ChatID = s.chats[ev.PlayerID]
	s.mu.RUnlock()

	if sink != nil {
		sink.OnQuizUpdate(s.ctx, u)
	}
}

// isStreakMilestone matches the answer streaks that earn a bonus step.
func isStreakMilestone(streak int) bool {
	return streak == 5 || streak == 10 || streak == 15
}

// finalize records a completed session: session and player in one
// transaction, then achievements, then leaderboard and metrics.
func (s *GameService) finalize(ev quiz.Event) *Completion {
	ctx, cancel := context.WithTimeout(s.ctx, finalizeTimeout)
	defer cancel()

	c := &Completion{Result: ev.Result, Breakdown: ev.Breakdown}
	log := s.logger.With(
		zap.Int64("player_id", ev.PlayerID),
		zap.String("session_id", ev.Result.ID.String()),
	)

	player, outcome, err := s.recorder.RecordSession(ctx, ev.Result, s.clock())
	if err != nil {
		log.Error("failed to record session", zap.Error(err))
		c.Err = err
		return c
	}
	c.Player, c.Outcome = player, outcome

	perfect := ev.Result.IsPerfect()
	s.metrics.SessionsCompleted.WithLabelValues(string(ev.Result.Category), strconv.FormatBool(perfect)).Inc()
	s.metrics.SessionDuration.Observe(ev.Result.TimeElapsed.Seconds())
	s.metrics.XPAwarded.WithLabelValues("session").Add(float64(ev.Result.XPEarned))

	unlocks, err := s.achievements.Check(ctx, player, ev.Result)
	if err != nil {
		log.Warn("failed to check achievements", zap.Error(err))
	} else {
		c.Unlocks = unlocks
		for _, a := range unlocks.Achievements {
			s.metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
		}
		s.metrics.XPAwarded.WithLabelValues("achievement").Add(float64(unlocks.XPAwarded))
	}

	if c.LeveledUp() {
		s.metrics.LevelUps.Inc()
		s.cues.Notify(ctx, ev.PlayerID, feedback.CueLevelUp)
	}
	if perfect {
		s.cues.Notify(ctx, ev.PlayerID, feedback.CuePerfect)
	}

	if err := s.leaderboard.Upsert(ctx, player); err != nil {
		log.Warn("failed to update leaderboard", zap.Error(err))
	}

	log.Info("session recorded",
		zap.Int("xp", ev.Result.XPEarned),
		zap.Int("achievement_xp", c.Unlocks.XPAwarded),
		zap.Int("level", player.Level),
		zap.Int("streak", player.CurrentStreak),
	)
	return c
}
