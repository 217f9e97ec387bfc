package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuestionsPerSession is the fixed length of a quiz run.
const QuestionsPerSession = 10

// NoAnswer is the selected index recorded when a question times out.
const NoAnswer = -1

// AnswerRecord is one answered (or timed out) question of a session.
type AnswerRecord struct {
	QuestionID    string        `json:"questionId"`
	SelectedIndex int           `json:"selectedIndex"` // NoAnswer on timeout
	IsCorrect     bool          `json:"isCorrect"`
	TimeSpent     time.Duration `json:"timeSpent"`
}

// SessionResult is the immutable outcome of one completed quiz run.
type SessionResult struct {
	ID             uuid.UUID
	PlayerID       int64
	Date           time.Time
	Category       Category
	CorrectCount   int
	TotalQuestions int
	XPEarned       int
	TimeElapsed    time.Duration
	Answers        []AnswerRecord
	StreakBonus    int
	PerfectBonus   int
}

// Accuracy is correct answers over total questions, in [0, 1].
func (r *SessionResult) Accuracy() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.TotalQuestions)
}

// IsPerfect reports whether every question was answered correctly.
func (r *SessionResult) IsPerfect() bool {
	return r.CorrectCount == r.TotalQuestions
}

// AverageTimePerQuestion spreads the elapsed time over all questions.
func (r *SessionResult) AverageTimePerQuestion() time.Duration {
	if r.TotalQuestions == 0 {
		return 0
	}
	return r.TimeElapsed / time.Duration(r.TotalQuestions)
}

// FormattedTime renders the elapsed time as m:ss.
func (r *SessionResult) FormattedTime() string {
	secs := int(r.TimeElapsed.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// SessionStats aggregates a player's whole session history.
type SessionStats struct {
	TotalSessions    int
	TotalXPEarned    int
	AverageScore     float64
	FavoriteCategory *Category // nil without sessions
	BestStreak       int       // consecutive calendar days, recomputed from history
	PerfectSessions  int
}
