package entities

// Difficulty tags a question and scales the base XP it is worth.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// XPMultiplier returns the base XP factor for the difficulty.
// Unknown values are treated as medium.
func (d Difficulty) XPMultiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyHard:
		return 2.0
	default:
		return 1.5
	}
}

// AnswersPerQuestion is the fixed number of options a question carries.
const AnswersPerQuestion = 4

// Question is an immutable trivia item loaded from the bundled dataset.
type Question struct {
	ID             string     `json:"id" validate:"required"`
	Text           string     `json:"text" validate:"required"`
	Answers        []string   `json:"answers" validate:"len=4,dive,required"`
	CorrectIndex   int        `json:"correctIndex" validate:"gte=0,lt=4"`
	Category       Category   `json:"category" validate:"required,category"`
	Difficulty     Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Explanation    string     `json:"explanation,omitempty"`
	BibleReference string     `json:"bibleReference,omitempty"`
}

// IsValid reports whether the question has four non-empty answers,
// non-empty text and a correct index inside the answers.
func (q *Question) IsValid() bool {
	if q.Text == "" || len(q.Answers) != AnswersPerQuestion {
		return false
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return false
	}
	for _, a := range q.Answers {
		if a == "" {
			return false
		}
	}
	return true
}

// CorrectAnswer returns the text of the correct option, or "" for an invalid question.
func (q *Question) CorrectAnswer() string {
	if !q.IsValid() {
		return ""
	}
	return q.Answers[q.CorrectIndex]
}
