package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores completed quiz sessions.
type SessionRepository struct {
	db postgres.DBTX
}

func NewSessionRepository(db postgres.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, player_id, played_at, category, correct_count, total_questions,
	xp_earned, time_elapsed_ms, streak_bonus, perfect_bonus, answers
`

// Save inserts a completed session. Answers are stored as jsonb.
func (r *SessionRepository) Save(ctx context.Context, s *entities.SessionResult) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	query := `
		INSERT INTO quiz_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(
		ctx,
		query,
		s.ID,
		s.PlayerID,
		s.Date,
		string(s.Category),
		s.CorrectCount,
		s.TotalQuestions,
		s.XPEarned,
		s.TimeElapsed.Milliseconds(),
		s.StreakBonus,
		s.PerfectBonus,
		answers,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// Get returns a single session.
func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*entities.SessionResult, error) {
	query := "SELECT" + sessionColumns + "FROM quiz_sessions WHERE id = $1"

	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListByPlayer returns the player's sessions, newest first. A non-positive
// limit returns all of them.
func (r *SessionRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]entities.SessionResult, error) {
	if limit <= 0 {
		return r.list(ctx, "SELECT"+sessionColumns+`
			FROM quiz_sessions WHERE player_id = $1
			ORDER BY played_at DESC`, playerID)
	}
	return r.list(ctx, "SELECT"+sessionColumns+`
		FROM quiz_sessions WHERE player_id = $1
		ORDER BY played_at DESC
		LIMIT $2`, playerID, limit)
}

// ListByCategory returns the player's sessions in one category, newest first.
func (r *SessionRepository) ListByCategory(
	ctx context.Context, playerID int64, category entities.Category,
) ([]entities.SessionResult, error) {
	return r.list(ctx, "SELECT"+sessionColumns+`
		FROM quiz_sessions WHERE player_id = $1 AND category = $2
		ORDER BY played_at DESC`, playerID, string(category))
}

// ListBetween returns sessions played in [from, to), newest first.
func (r *SessionRepository) ListBetween(
	ctx context.Context, playerID int64, from, to time.Time,
) ([]entities.SessionResult, error) {
	return r.list(ctx, "SELECT"+sessionColumns+`
		FROM quiz_sessions
		WHERE player_id = $1 AND played_at >= $2 AND played_at < $3
		ORDER BY played_at DESC`, playerID, from, to)
}

// Delete removes one session.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quiz_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Stats aggregates the player's whole history. The best streak is replayed
// from session dates in loc.
func (r *SessionRepository) Stats(ctx context.Context, playerID int64, loc *time.Location) (entities.SessionStats, error) {
	sessions, err := r.ListByPlayer(ctx, playerID, 0)
	if err != nil {
		return entities.SessionStats{}, err
	}
	return progression.SessionStatsFromHistory(sessions, loc), nil
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]entities.SessionResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []entities.SessionResult
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (*entities.SessionResult, error) {
	var (
		s         entities.SessionResult
		category  string
		elapsedMS int64
		answers   []byte
	)

	err := row.Scan(
		&s.ID,
		&s.PlayerID,
		&s.Date,
		&category,
		&s.CorrectCount,
		&s.TotalQuestions,
		&s.XPEarned,
		&elapsedMS,
		&s.StreakBonus,
		&s.PerfectBonus,
		&answers,
	)
	if err != nil {
		return nil, err
	}

	s.Category = entities.Category(category)
	s.TimeElapsed = time.Duration(elapsedMS) * time.Millisecond
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}

	return &s, nil
}
