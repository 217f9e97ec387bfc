package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

type stubSource struct {
	questions []entities.Question
	err       error
}

func (s stubSource) LoadQuestions(_ context.Context, _ entities.Category) ([]entities.Question, error) {
	return s.questions, s.err
}

func makeQuestions(n int) []entities.Question {
	qs := make([]entities.Question, n)
	for i := range qs {
		qs[i] = entities.Question{
			ID:           fmt.Sprintf("q%02d", i),
			Text:         fmt.Sprintf("Question %d", i),
			Answers:      []string{"right", "wrong", "wrong", "wrong"},
			CorrectIndex: 0,
			Category:     entities.CategoryGospels,
		}
	}
	return qs
}

var t0 = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, n int) *Engine {
	t.Helper()
	return NewEngine(42, stubSource{questions: makeQuestions(n)}, Options{
		QuestionTimeout: 30 * time.Second,
		AdvanceDelay:    1500 * time.Millisecond,
		Rand:            rand.New(rand.NewPCG(1, 1)),
	})
}

func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	events, err := e.Start(context.Background(), entities.CategoryGospels, t0)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if len(events) != 1 || events[0].Kind != EventQuestionPresented || events[0].Index != 0 {
		t.Fatalf("unexpected start events %+v", events)
	}
}

func findEvent(events []Event, kind EventKind) (Event, bool) {
	for _, ev := range events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return Event{}, false
}

func TestPerfectRun(t *testing.T) {
	e := newTestEngine(t, 20)
	startEngine(t, e)

	now := t0
	var last []Event
	for i := 0; i < entities.QuestionsPerSession; i++ {
		now = now.Add(3 * time.Second)
		last = e.Submit(0, now)
		if _, ok := findEvent(last, EventAnswerRecorded); !ok {
			t.Fatalf("question %d: answer not recorded: %+v", i, last)
		}
		if i == entities.QuestionsPerSession-1 {
			break
		}
		now = now.Add(1500 * time.Millisecond)
		events := e.Tick(now)
		if ev, ok := findEvent(events, EventQuestionPresented); !ok || ev.Index != i+1 {
			t.Fatalf("question %d: expected advance, got %+v", i, events)
		}
	}

	ev, ok := findEvent(last, EventCompleted)
	if !ok {
		t.Fatalf("session did not complete: %+v", last)
	}
	if e.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", e.State())
	}

	r := ev.Result
	if !r.IsPerfect() || r.CorrectCount != 10 || r.TotalQuestions != 10 || len(r.Answers) != 10 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.TimeElapsed != 43500*time.Millisecond {
		t.Fatalf("TimeElapsed = %v, want 43.5s", r.TimeElapsed)
	}

	b := ev.Breakdown
	if b.BaseXP != 150 || b.PerfectBonus != 100 || b.SpeedBonus != 50 || b.StreakBonus != 40 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if r.XPEarned != 340 || r.PerfectBonus != 100 || r.StreakBonus != 40 {
		t.Fatalf("unexpected XP %d (perfect %d, streak %d)", r.XPEarned, r.PerfectBonus, r.StreakBonus)
	}
	if r.PlayerID != 42 || r.Category != entities.CategoryGospels {
		t.Fatalf("unexpected ownership %+v", r)
	}
	for _, a := range r.Answers {
		if a.TimeSpent != 3*time.Second {
			t.Fatalf("answer %s spent %v, want 3s", a.QuestionID, a.TimeSpent)
		}
	}
}

func TestSamplesWithoutReplacement(t *testing.T) {
	e := newTestEngine(t, 25)
	startEngine(t, e)

	seen := make(map[string]bool)
	for _, q := range e.questions {
		if seen[q.ID] {
			t.Fatalf("question %s picked twice", q.ID)
		}
		seen[q.ID] = true
	}
	if len(seen) != entities.QuestionsPerSession {
		t.Fatalf("picked %d questions, want %d", len(seen), entities.QuestionsPerSession)
	}
}

func TestTimeoutRecordsNoAnswerAndAdvances(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	if events := e.Tick(t0.Add(29 * time.Second)); len(events) > 0 {
		if _, ok := findEvent(events, EventTimedOut); ok {
			t.Fatalf("timed out early")
		}
	}

	events := e.Tick(t0.Add(30 * time.Second))
	ev, ok := findEvent(events, EventTimedOut)
	if !ok {
		t.Fatalf("expected timeout, got %+v", events)
	}
	if ev.Answer.SelectedIndex != entities.NoAnswer || ev.Answer.IsCorrect {
		t.Fatalf("unexpected timeout answer %+v", ev.Answer)
	}
	if ev.Answer.TimeSpent != 30*time.Second {
		t.Fatalf("TimeSpent = %v, want 30s", ev.Answer.TimeSpent)
	}

	events = e.Tick(t0.Add(31500 * time.Millisecond))
	if ev, ok := findEvent(events, EventQuestionPresented); !ok || ev.Index != 1 {
		t.Fatalf("expected advance to question 1, got %+v", events)
	}
	if e.State() != StateActive {
		t.Fatalf("state = %s, want active", e.State())
	}
}

func TestTimeoutOnLastQuestionCompletes(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	now := t0
	for i := 0; i < entities.QuestionsPerSession-1; i++ {
		now = now.Add(time.Second)
		e.Submit(1, now)
		now = now.Add(1500 * time.Millisecond)
		e.Tick(now)
	}

	events := e.Tick(now.Add(30 * time.Second))
	ev, ok := findEvent(events, EventCompleted)
	if !ok {
		t.Fatalf("expected completion, got %+v", events)
	}
	if ev.Result.CorrectCount != 0 || ev.Result.XPEarned != 0 {
		t.Fatalf("unexpected result %+v", ev.Result)
	}
}

func TestCountdown(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	if events := e.Tick(t0.Add(20 * time.Second)); len(events) != 0 {
		t.Fatalf("unexpected events %+v", events)
	}

	events := e.Tick(t0.Add(25500 * time.Millisecond))
	if _, ok := findEvent(events, EventCountdown); !ok {
		t.Fatalf("expected countdown at 5s left, got %+v", events)
	}
	if events := e.Tick(t0.Add(25600 * time.Millisecond)); len(events) != 0 {
		t.Fatalf("countdown repeated within the same second: %+v", events)
	}
	if _, ok := findEvent(e.Tick(t0.Add(26100*time.Millisecond)), EventCountdown); !ok {
		t.Fatalf("expected countdown at 4s left")
	}
}

func TestPauseResumeKeepsRemainingTime(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	events := e.Pause(t0.Add(10 * time.Second))
	if ev, ok := findEvent(events, EventPaused); !ok || ev.Remaining != 20*time.Second {
		t.Fatalf("unexpected pause events %+v", events)
	}

	if events := e.Tick(t0.Add(100 * time.Second)); events != nil {
		t.Fatalf("tick while paused produced %+v", events)
	}
	if got := e.TimeRemaining(t0.Add(100 * time.Second)); got != 20*time.Second {
		t.Fatalf("TimeRemaining while paused = %v, want 20s", got)
	}

	e.Resume(t0.Add(100 * time.Second))
	if got := e.TimeRemaining(t0.Add(100 * time.Second)); got != 20*time.Second {
		t.Fatalf("TimeRemaining after resume = %v, want 20s", got)
	}

	if _, ok := findEvent(e.Tick(t0.Add(119*time.Second)), EventTimedOut); ok {
		t.Fatalf("timed out before remaining time elapsed")
	}
	if _, ok := findEvent(e.Tick(t0.Add(120*time.Second)), EventTimedOut); !ok {
		t.Fatalf("expected timeout after remaining time elapsed")
	}
}

func TestPausedTimeCountsAsWallTime(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	e.Pause(t0.Add(2 * time.Second))
	e.Resume(t0.Add(12 * time.Second))

	events := e.Submit(0, t0.Add(14*time.Second))
	ev, ok := findEvent(events, EventAnswerRecorded)
	if !ok || ev.Answer.TimeSpent != 14*time.Second {
		t.Fatalf("unexpected answer %+v", events)
	}
}

func TestLongPauseRemovesSpeedBonus(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	now := t0.Add(time.Second)
	e.Pause(now)
	now = now.Add(10 * time.Minute)
	e.Resume(now)

	var last []Event
	for i := 0; i < entities.QuestionsPerSession; i++ {
		now = now.Add(time.Second)
		last = e.Submit(0, now)
		if i == entities.QuestionsPerSession-1 {
			break
		}
		now = now.Add(1500 * time.Millisecond)
		e.Tick(now)
	}

	ev, ok := findEvent(last, EventCompleted)
	if !ok {
		t.Fatalf("session did not complete: %+v", last)
	}
	if want := now.Sub(t0); ev.Result.TimeElapsed != want {
		t.Fatalf("TimeElapsed = %v, want wall time %v", ev.Result.TimeElapsed, want)
	}
	if ev.Breakdown.SpeedBonus != 0 {
		t.Fatalf("speed bonus %d earned across a 10 minute pause", ev.Breakdown.SpeedBonus)
	}
	if ev.Result.XPEarned != 290 {
		t.Fatalf("XPEarned = %d, want 290 without speed bonus", ev.Result.XPEarned)
	}
}

func TestEndWhilePausedUsesWallTime(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	e.Pause(t0.Add(5 * time.Second))
	events := e.End(t0.Add(5 * time.Minute))
	ev, ok := findEvent(events, EventCompleted)
	if !ok {
		t.Fatalf("expected completion, got %+v", events)
	}
	if ev.Result.TimeElapsed != 5*time.Minute {
		t.Fatalf("TimeElapsed = %v, want 5m", ev.Result.TimeElapsed)
	}
}

func TestGuardedNoOps(t *testing.T) {
	e := newTestEngine(t, 10)

	if e.Submit(0, t0) != nil || e.Pause(t0) != nil || e.Resume(t0) != nil || e.End(t0) != nil || e.Tick(t0) != nil {
		t.Fatalf("idle engine must ignore every call")
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %s, want idle", e.State())
	}

	startEngine(t, e)

	if e.Resume(t0) != nil {
		t.Fatalf("resume while active must be ignored")
	}
	if e.Submit(7, t0.Add(time.Second)) != nil || e.Submit(-1, t0.Add(time.Second)) != nil {
		t.Fatalf("out of range answers must be ignored")
	}

	e.Pause(t0.Add(time.Second))
	if e.Submit(0, t0.Add(2*time.Second)) != nil || e.Pause(t0.Add(2*time.Second)) != nil {
		t.Fatalf("submit and pause while paused must be ignored")
	}
	e.Resume(t0.Add(3 * time.Second))

	e.Submit(0, t0.Add(4*time.Second))
	if e.Submit(1, t0.Add(4200*time.Millisecond)) != nil {
		t.Fatalf("second submit before advance must be ignored")
	}
	if len(e.answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(e.answers))
	}
}

func TestInsufficientQuestionsStaysIdle(t *testing.T) {
	e := newTestEngine(t, entities.QuestionsPerSession-1)

	_, err := e.Start(context.Background(), entities.CategoryGospels, t0)
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Fatalf("Start() error = %v, want ErrInsufficientQuestions", err)
	}
	if e.State() != StateIdle || e.Generation() != 0 {
		t.Fatalf("failed start changed the engine: %s gen %d", e.State(), e.Generation())
	}
}

func TestSourceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine(1, stubSource{err: boom}, Options{})

	if _, err := e.Start(context.Background(), entities.CategoryGospels, t0); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v, want %v", err, boom)
	}
}

func TestEndEarly(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)

	now := t0
	for i := 0; i < 3; i++ {
		now = now.Add(2 * time.Second)
		e.Submit(0, now)
		now = now.Add(1500 * time.Millisecond)
		e.Tick(now)
	}

	events := e.End(now)
	ev, ok := findEvent(events, EventCompleted)
	if !ok {
		t.Fatalf("expected completion, got %+v", events)
	}
	r := ev.Result
	if r.CorrectCount != 3 || r.TotalQuestions != 10 || len(r.Answers) != 3 || r.IsPerfect() {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.XPEarned != ev.Breakdown.Total() {
		t.Fatalf("XPEarned %d != breakdown total %d", r.XPEarned, ev.Breakdown.Total())
	}

	if e.End(now) != nil || e.Submit(0, now) != nil || e.Tick(now.Add(time.Hour)) != nil {
		t.Fatalf("completed engine must ignore further calls")
	}
	if res, _ := e.Result(); res != r {
		t.Fatalf("Result() does not return the completed session")
	}
}

func TestRestartRetiresPreviousSession(t *testing.T) {
	e := newTestEngine(t, 10)
	startEngine(t, e)
	e.Submit(0, t0.Add(time.Second))
	first := e.Generation()

	if _, err := e.Start(context.Background(), entities.CategoryGospels, t0.Add(time.Minute)); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if e.Generation() != first+1 {
		t.Fatalf("generation = %d, want %d", e.Generation(), first+1)
	}
	snap := e.Snapshot(t0.Add(time.Minute))
	if snap.Answered != 0 || snap.Index != 0 || snap.AwaitingAdvance || snap.TimeRemaining != 30*time.Second {
		t.Fatalf("restart kept stale state: %+v", snap)
	}
}
