// Package quiz implements the timed ten-question session as a tick-driven
// state machine. The Engine never reads the wall clock: every transition
// takes an explicit now, and a Runner feeds it ticks from a time.Ticker.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

// ErrInsufficientQuestions is returned by Start when the category pool is
// smaller than one session.
var ErrInsufficientQuestions = errors.New("insufficient questions for category")

// State is the lifecycle position of a session.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

const (
	DefaultQuestionTimeout = 30 * time.Second
	DefaultAdvanceDelay    = 1500 * time.Millisecond
	countdownFrom          = 5
)

// QuestionSource provides the category question pools.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, category entities.Category) ([]entities.Question, error)
}

// Options tune the engine timings.
type Options struct {
	QuestionTimeout time.Duration
	AdvanceDelay    time.Duration
	Rand            *rand.Rand
}

// Engine is the session state machine of one player. It is not safe for
// concurrent use; Runner serializes access.
type Engine struct {
	playerID int64
	source   QuestionSource
	timeout  time.Duration
	delay    time.Duration
	rng      *rand.Rand

	state      State
	generation uint64
	category   entities.Category
	questions  []entities.Question
	current    int
	answers    []entities.AnswerRecord
	streak     int

	startedAt         time.Time
	questionStartedAt time.Time
	deadline          time.Time
	pausedAt          time.Time

	awaitingAdvance bool
	advanceAt       time.Time
	lastCountdown   int

	result    *entities.SessionResult
	breakdown progression.XPBreakdown
}

// NewEngine creates an idle engine for the player.
func NewEngine(playerID int64, source QuestionSource, opts Options) *Engine {
	if opts.QuestionTimeout <= 0 {
		opts.QuestionTimeout = DefaultQuestionTimeout
	}
	if opts.AdvanceDelay < 0 {
		opts.AdvanceDelay = 0
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Engine{
		playerID: playerID,
		source:   source,
		timeout:  opts.QuestionTimeout,
		delay:    opts.AdvanceDelay,
		rng:      opts.Rand,
		state:    StateIdle,
	}
}

func (e *Engine) State() State { return e.state }

// Generation increases on every Start. Events and callbacks carrying an
// older generation belong to a discarded session.
func (e *Engine) Generation() uint64 { return e.generation }

func (e *Engine) PlayerID() int64 { return e.playerID }

func (e *Engine) Category() entities.Category { return e.category }

// Result returns the completed session, or nil before completion.
func (e *Engine) Result() (*entities.SessionResult, progression.XPBreakdown) {
	return e.result, e.breakdown
}

// Start samples a fresh session for the category and presents the first
// question. Any previous session is discarded and its generation retired.
// On error the engine is left untouched.
func (e *Engine) Start(ctx context.Context, category entities.Category, now time.Time) ([]Event, error) {
	pool, err := e.source.LoadQuestions(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(pool) < entities.QuestionsPerSession {
		return nil, fmt.Errorf("%w: %s has %d", ErrInsufficientQuestions, category, len(pool))
	}

	picked := make([]entities.Question, len(pool))
	copy(picked, pool)
	e.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	e.generation++
	e.state = StateActive
	e.category = category
	e.questions = picked[:entities.QuestionsPerSession]
	e.current = 0
	e.answers = make([]entities.AnswerRecord, 0, entities.QuestionsPerSession)
	e.streak = 0
	e.startedAt = now
	e.awaitingAdvance = false
	e.result = nil
	e.breakdown = progression.XPBreakdown{}

	return []Event{e.present(now)}, nil
}

// Submit records the player's answer to the current question. It is a
// no-op unless the session is active and waiting for an answer.
func (e *Engine) Submit(index int, now time.Time) []Event {
	if e.state != StateActive || e.awaitingAdvance {
		return nil
	}
	if index < 0 || index >= len(e.questions[e.current].Answers) {
		return nil
	}
	return e.record(index, now.Sub(e.questionStartedAt), EventAnswerRecorded, now)
}

// Tick advances timers: it times out the current question and moves on
// after the post-answer delay. Ticks while not active are ignored.
func (e *Engine) Tick(now time.Time) []Event {
	if e.state != StateActive {
		return nil
	}

	if e.awaitingAdvance {
		if now.Before(e.advanceAt) {
			return nil
		}
		e.current++
		return []Event{e.present(now)}
	}

	if !now.Before(e.deadline) {
		return e.record(entities.NoAnswer, e.timeout, EventTimedOut, now)
	}

	secs := int((e.deadline.Sub(now) + time.Second - 1) / time.Second)
	if secs <= countdownFrom && secs < e.lastCountdown {
		e.lastCountdown = secs
		ev := e.event(EventCountdown)
		ev.Remaining = e.deadline.Sub(now)
		return []Event{ev}
	}

	return nil
}

// Pause freezes the question countdown. The session clock keeps running:
// elapsed time is wall time, pauses included.
func (e *Engine) Pause(now time.Time) []Event {
	if e.state != StateActive {
		return nil
	}
	e.state = StatePaused
	e.pausedAt = now

	ev := e.event(EventPaused)
	ev.Remaining = e.remaining(now)
	return []Event{ev}
}

// Resume continues a paused session with the time that was left.
func (e *Engine) Resume(now time.Time) []Event {
	if e.state != StatePaused {
		return nil
	}
	shift := max(0, now.Sub(e.pausedAt))

	e.deadline = e.deadline.Add(shift)
	e.advanceAt = e.advanceAt.Add(shift)
	e.state = StateActive

	ev := e.event(EventResumed)
	ev.Remaining = e.remaining(now)
	return []Event{ev}
}

// End aborts the session and completes it with the answers recorded so far.
func (e *Engine) End(now time.Time) []Event {
	switch e.state {
	case StateActive:
		return []Event{e.complete(now)}
	case StatePaused:
		return []Event{e.complete(now)}
	default:
		return nil
	}
}

// TimeRemaining is the time left to answer the current question.
func (e *Engine) TimeRemaining(now time.Time) time.Duration {
	switch e.state {
	case StateActive:
		return e.remaining(now)
	case StatePaused:
		return e.remaining(e.pausedAt)
	default:
		return 0
	}
}

// Snapshot is a read-only view of the engine for rendering.
type Snapshot struct {
	State           State
	Generation      uint64
	Category        entities.Category
	Index           int
	Total           int
	Question        *entities.Question
	Answered        int
	CorrectCount    int
	AnswerStreak    int
	AwaitingAdvance bool
	TimeRemaining   time.Duration
}

func (e *Engine) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		State:           e.state,
		Generation:      e.generation,
		Category:        e.category,
		Index:           e.current,
		Total:           len(e.questions),
		Answered:        len(e.answers),
		CorrectCount:    e.correctCount(),
		AnswerStreak:    e.streak,
		AwaitingAdvance: e.awaitingAdvance,
		TimeRemaining:   e.TimeRemaining(now),
	}
	if e.state == StateActive || e.state == StatePaused {
		q := e.questions[e.current]
		s.Question = &q
	}
	return s
}

func (e *Engine) present(now time.Time) Event {
	e.awaitingAdvance = false
	e.questionStartedAt = now
	e.deadline = now.Add(e.timeout)
	e.lastCountdown = countdownFrom + 1

	q := e.questions[e.current]
	ev := e.event(EventQuestionPresented)
	ev.Question = &q
	ev.Remaining = e.timeout
	return ev
}

func (e *Engine) record(index int, spent time.Duration, kind EventKind, now time.Time) []Event {
	q := e.questions[e.current]
	answer := entities.AnswerRecord{
		QuestionID:    q.ID,
		SelectedIndex: index,
		IsCorrect:     index == q.CorrectIndex,
		TimeSpent:     min(spent, e.timeout),
	}
	e.answers = append(e.answers, answer)

	if answer.IsCorrect {
		e.streak++
	} else {
		e.streak = 0
	}

	ev := e.event(kind)
	ev.Question = &q
	ev.Answer = &answer
	events := []Event{ev}

	if len(e.answers) == len(e.questions) {
		return append(events, e.complete(now))
	}

	e.awaitingAdvance = true
	e.advanceAt = now.Add(e.delay)
	return events
}

func (e *Engine) complete(now time.Time) Event {
	elapsed := max(0, now.Sub(e.startedAt))
	correct := e.correctCount()
	total := len(e.questions)

	e.breakdown = progression.CalculateXP(progression.XPInput{
		CorrectAnswers:         correct,
		TotalQuestions:         total,
		AverageTimePerQuestion: elapsed / time.Duration(total),
		CurrentStreak:          e.streak,
		Category:               e.category,
	})

	answers := make([]entities.AnswerRecord, len(e.answers))
	copy(answers, e.answers)

	e.result = &entities.SessionResult{
		ID:             uuid.New(),
		PlayerID:       e.playerID,
		Date:           now,
		Category:       e.category,
		CorrectCount:   correct,
		TotalQuestions: total,
		XPEarned:       e.breakdown.Total(),
		TimeElapsed:    elapsed,
		Answers:        answers,
		StreakBonus:    e.breakdown.StreakBonus,
		PerfectBonus:   e.breakdown.PerfectBonus,
	}
	e.state = StateCompleted
	e.awaitingAdvance = false

	ev := e.event(EventCompleted)
	ev.Result = e.result
	ev.Breakdown = e.breakdown
	return ev
}

func (e *Engine) event(kind EventKind) Event {
	return Event{
		Kind:         kind,
		PlayerID:     e.playerID,
		Generation:   e.generation,
		Index:        e.current,
		Total:        len(e.questions),
		AnswerStreak: e.streak,
	}
}

func (e *Engine) remaining(now time.Time) time.Duration {
	if e.awaitingAdvance {
		return 0
	}
	return max(0, e.deadline.Sub(now))
}

func (e *Engine) correctCount() int {
	n := 0
	for _, a := range e.answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
