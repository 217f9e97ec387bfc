package quiz

import (
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

// EventKind names a state machine transition.
type EventKind string

const (
	EventQuestionPresented EventKind = "question_presented"
	EventAnswerRecorded    EventKind = "answer_recorded"
	EventTimedOut          EventKind = "timed_out"
	EventCountdown         EventKind = "countdown"
	EventPaused            EventKind = "paused"
	EventResumed           EventKind = "resumed"
	EventCompleted         EventKind = "completed"
)

// Event is emitted by every transition of the Engine. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind       EventKind
	PlayerID   int64
	Generation uint64

	// Index is the zero-based position of the question the event refers to.
	Index    int
	Total    int
	Question *entities.Question

	Answer       *entities.AnswerRecord
	AnswerStreak int

	// Remaining is the time left on the current question.
	Remaining time.Duration

	Result    *entities.SessionResult
	Breakdown progression.XPBreakdown
}
