package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/feedback"
	"github.com/aliskhannn/holy-trivia-bot/internal/metrics"
	"github.com/aliskhannn/holy-trivia-bot/internal/quiz"
)

type questionPool []entities.Question

func (q questionPool) LoadQuestions(context.Context, entities.Category) ([]entities.Question, error) {
	return q, nil
}

func gospelQuestions(n int) questionPool {
	qs := make(questionPool, n)
	for i := range qs {
		qs[i] = entities.Question{
			ID:           fmt.Sprintf("gs-%03d", i+1),
			Text:         fmt.Sprintf("Question %d", i+1),
			Answers:      []string{"right", "wrong", "wrong", "wrong"},
			CorrectIndex: 0,
			Category:     entities.CategoryGospels,
			Difficulty:   entities.DifficultyMedium,
		}
	}
	return qs
}

type chanSink chan Update

func (c chanSink) OnQuizUpdate(_ context.Context, u Update) { c <- u }

type cueRecorder struct {
	mu   sync.Mutex
	cues []feedback.Cue
}

func (r *cueRecorder) Notify(_ context.Context, _ int64, cue feedback.Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
}

func (r *cueRecorder) count(cue feedback.Cue) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.cues {
		if c == cue {
			n++
		}
	}
	return n
}

type gameFixture struct {
	svc   *GameService
	store *memStore
	board *fakeBoard
	m     *metrics.Metrics
	cues  *cueRecorder
	sink  chanSink
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &gameFixture{
		store: newMemStore(),
		board: newFakeBoard(),
		m:     metrics.New(),
		cues:  &cueRecorder{},
		sink:  make(chanSink, 256),
	}
	f.svc = NewGameService(ctx,
		gospelQuestions(12),
		f.store,
		achievement.NewManager(f.store, nil),
		f.board,
		f.m,
		f.cues,
		QuizTiming{QuestionTimeout: time.Minute, AdvanceDelay: 0, TickInterval: time.Millisecond},
		testLogger,
	)
	f.svc.SetSink(f.sink)
	t.Cleanup(f.svc.Shutdown)

	f.store.put(entities.NewPlayer(1, 100, "ruth"))
	return f
}

func (f *gameFixture) waitFor(t *testing.T, kind quiz.EventKind, index int) Update {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-f.sink:
			if u.Event.Kind == kind && (index < 0 || u.Event.Index == index) {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s #%d", kind, index)
		}
	}
}

func TestGamePerfectRunRecordsProgress(t *testing.T) {
	f := newGameFixture(t)
	player, _ := f.store.Get(context.Background(), 1)

	snap, err := f.svc.StartQuiz(context.Background(), player, entities.CategoryGospels)
	if err != nil {
		t.Fatalf("StartQuiz() error: %v", err)
	}
	if got := testutil.ToFloat64(f.m.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v, want 1", got)
	}

	first := f.waitFor(t, quiz.EventQuestionPresented, 0)
	if first.ChatID != 100 {
		t.Fatalf("update addressed to chat %d, want 100", first.ChatID)
	}

	for i := 0; i < entities.QuestionsPerSession; i++ {
		if !f.svc.SubmitAnswer(1, snap.Generation, i, 0) {
			t.Fatalf("answer %d rejected", i)
		}
		if i < entities.QuestionsPerSession-1 {
			f.waitFor(t, quiz.EventQuestionPresented, i+1)
		}
	}

	u := f.waitFor(t, quiz.EventCompleted, -1)
	c := u.Completion
	if c == nil || c.Err != nil {
		t.Fatalf("completion = %+v", c)
	}
	if !c.Result.IsPerfect() {
		t.Fatalf("result not perfect: %d/%d", c.Result.CorrectCount, c.Result.TotalQuestions)
	}

	var ids []string
	for _, a := range c.Unlocks.Achievements {
		ids = append(ids, a.ID)
	}
	if len(ids) != 2 || ids[0] != "first_perfect" || ids[1] != "speed_demon" {
		t.Fatalf("unlocked %v, want [first_perfect speed_demon]", ids)
	}

	want := c.Result.XPEarned + c.Unlocks.XPAwarded
	if c.Player.TotalXP != want {
		t.Fatalf("total XP = %d, want session %d + achievements %d", c.Player.TotalXP, c.Result.XPEarned, c.Unlocks.XPAwarded)
	}
	if c.Player.CurrentStreak != 1 {
		t.Fatalf("day streak = %d, want 1", c.Player.CurrentStreak)
	}
	if got := f.board.xp[1]; got != want {
		t.Fatalf("leaderboard XP = %d, want %d", got, want)
	}

	if got := testutil.ToFloat64(f.m.ActiveSessions); got != 0 {
		t.Fatalf("active sessions = %v, want 0", got)
	}
	if got := testutil.ToFloat64(f.m.AnswersTotal.WithLabelValues("correct")); got != 10 {
		t.Fatalf("correct answers metric = %v, want 10", got)
	}
	if got := testutil.ToFloat64(f.m.SessionsCompleted.WithLabelValues("gospels", "true")); got != 1 {
		t.Fatalf("completed sessions metric = %v, want 1", got)
	}
	if f.cues.count(feedback.CuePerfect) != 1 || f.cues.count(feedback.CueStreak) != 2 {
		t.Fatalf("cues = %v", f.cues.cues)
	}
}

func TestGameEndEarly(t *testing.T) {
	f := newGameFixture(t)
	player, _ := f.store.Get(context.Background(), 1)

	snap, err := f.svc.StartQuiz(context.Background(), player, entities.CategoryGospels)
	if err != nil {
		t.Fatalf("StartQuiz() error: %v", err)
	}
	if !f.svc.SubmitAnswer(1, snap.Generation, 0, 1) {
		t.Fatalf("answer rejected")
	}
	if !f.svc.End(1) {
		t.Fatalf("End() = false")
	}

	c := f.waitFor(t, quiz.EventCompleted, -1).Completion
	if c.Result.CorrectCount != 0 || c.Result.TotalQuestions != entities.QuestionsPerSession {
		t.Fatalf("result = %d/%d", c.Result.CorrectCount, c.Result.TotalQuestions)
	}
	if len(f.store.sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(f.store.sessions))
	}
	if f.svc.End(1) {
		t.Fatalf("second End() must be a no-op")
	}
	if f.cues.count(feedback.CueIncorrect) != 1 {
		t.Fatalf("cues = %v", f.cues.cues)
	}
}

func TestGameRecordFailureIsReported(t *testing.T) {
	f := newGameFixture(t)
	player, _ := f.store.Get(context.Background(), 1)

	if _, err := f.svc.StartQuiz(context.Background(), player, entities.CategoryGospels); err != nil {
		t.Fatalf("StartQuiz() error: %v", err)
	}
	f.store.failNext = errStore
	f.svc.End(1)

	c := f.waitFor(t, quiz.EventCompleted, -1).Completion
	if !errors.Is(c.Err, errStore) {
		t.Fatalf("completion error = %v, want %v", c.Err, errStore)
	}
	if c.Player != nil || len(f.board.xp) != 0 {
		t.Fatalf("failed session leaked into progression")
	}
}

func TestGameRestartKeepsOneActiveSession(t *testing.T) {
	f := newGameFixture(t)
	player, _ := f.store.Get(context.Background(), 1)

	first, err := f.svc.StartQuiz(context.Background(), player, entities.CategoryGospels)
	if err != nil {
		t.Fatalf("StartQuiz() error: %v", err)
	}
	second, err := f.svc.StartQuiz(context.Background(), player, entities.CategoryGospels)
	if err != nil {
		t.Fatalf("restart error: %v", err)
	}

	if got := testutil.ToFloat64(f.m.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v, want 1", got)
	}
	if f.svc.SubmitAnswer(1, first.Generation, 0, 0) {
		t.Fatalf("stale button accepted")
	}
	if !f.svc.SubmitAnswer(1, second.Generation, 0, 0) {
		t.Fatalf("current button rejected")
	}
}

func TestGameInsufficientQuestions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	m := metrics.New()
	svc := NewGameService(ctx, gospelQuestions(3), store, achievement.NewManager(store, nil),
		newFakeBoard(), m, nil, QuizTiming{}, testLogger)
	defer svc.Shutdown()

	_, err := svc.StartQuiz(ctx, entities.NewPlayer(1, 1, ""), entities.CategoryGospels)
	if !errors.Is(err, quiz.ErrInsufficientQuestions) {
		t.Fatalf("error = %v, want ErrInsufficientQuestions", err)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 0 {
		t.Fatalf("active sessions = %v, want 0", got)
	}
}

func TestGameCommandsWithoutSession(t *testing.T) {
	f := newGameFixture(t)

	if f.svc.SubmitAnswer(9, 1, 0, 0) || f.svc.Pause(9) || f.svc.Resume(9) || f.svc.End(9) {
		t.Fatalf("command for a player without a runner was accepted")
	}
	if _, ok := f.svc.Snapshot(9); ok {
		t.Fatalf("unexpected snapshot")
	}
}
