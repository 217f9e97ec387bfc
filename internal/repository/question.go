package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// ErrInvalidDataset is returned when the bundled question file cannot be used.
var ErrInvalidDataset = errors.New("invalid question dataset")

var validate = mustValidator()

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := entities.ParseCategory(fl.Field().String())
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("register category validation: %w", err)
	}
	return v, nil
}

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}

type dataset struct {
	Categories []entities.Category `json:"categories"`
	Questions  []entities.Question `json:"questions"`
}

// QuestionRepository serves questions from the bundled JSON dataset.
// The dataset is immutable after loading, so reads need no locking.
type QuestionRepository struct {
	categories []entities.Category
	all        []entities.Question
	byCategory map[entities.Category][]entities.Question
}

// NewQuestionRepository loads and validates the dataset at path.
func NewQuestionRepository(path string) (*QuestionRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes a dataset document. Every question must be valid
// and ids must be unique.
func ParseQuestions(data []byte) (*QuestionRepository, error) {
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrInvalidDataset, err)
	}
	if len(ds.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidDataset)
	}

	r := &QuestionRepository{
		all:        ds.Questions,
		byCategory: make(map[entities.Category][]entities.Question),
	}

	seen := make(map[string]struct{}, len(ds.Questions))
	for i := range ds.Questions {
		q := &ds.Questions[i]
		if err := validate.Struct(q); err != nil {
			return nil, fmt.Errorf("%w: question %q: %v", ErrInvalidDataset, q.ID, err)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidDataset, q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Difficulty == "" {
			q.Difficulty = entities.DifficultyMedium
		}
		r.byCategory[q.Category] = append(r.byCategory[q.Category], *q)
	}

	for _, c := range ds.Categories {
		if _, ok := entities.ParseCategory(string(c)); !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidDataset, c)
		}
		r.categories = append(r.categories, c)
	}
	if len(r.categories) == 0 {
		for _, c := range entities.AllCategories {
			if len(r.byCategory[c]) > 0 {
				r.categories = append(r.categories, c)
			}
		}
	}

	return r, nil
}

// LoadQuestions returns the category pool. The slice must not be modified.
func (r *QuestionRepository) LoadQuestions(_ context.Context, category entities.Category) ([]entities.Question, error) {
	return r.byCategory[category], nil
}

// QuestionCount returns the size of the category pool.
func (r *QuestionRepository) QuestionCount(_ context.Context, category entities.Category) (int, error) {
	return len(r.byCategory[category]), nil
}

// LoadAll returns every question in dataset order.
func (r *QuestionRepository) LoadAll() []entities.Question {
	return r.all
}

// Categories lists the categories the dataset declares.
func (r *QuestionRepository) Categories() []entities.Category {
	return r.categories
}
