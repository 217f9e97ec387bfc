package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository stores players with their category stats and unlocked
// achievements.
type PlayerRepository struct {
	db postgres.DBTX
}

// NewPlayerRepository creates a PlayerRepository over a pool or a transaction.
func NewPlayerRepository(db postgres.DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `
	id, chat_id, username, total_xp, level, current_streak, longest_streak,
	last_played_at, timezone, last_reminded_at, created_at, updated_at
`

func scanPlayer(row pgx.Row) (*entities.Player, error) {
	var p entities.Player
	err := row.Scan(
		&p.ID,
		&p.ChatID,
		&p.Username,
		&p.TotalXP,
		&p.Level,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.LastPlayedDate,
		&p.Timezone,
		&p.LastRemindedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Achievements = make(map[string]struct{})
	p.CategoryStats = make(map[entities.Category]entities.CategoryStat)
	return &p, nil
}

// Create inserts a new player. An existing player with the same id is left
// untouched and created is false.
func (r *PlayerRepository) Create(ctx context.Context, p *entities.Player) (bool, error) {
	query := `
		INSERT INTO players (
			id, chat_id, username, total_xp, level, current_streak, longest_streak,
			last_played_at, timezone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		p.ID,
		p.ChatID,
		p.Username,
		p.TotalXP,
		p.Level,
		p.CurrentStreak,
		p.LongestStreak,
		p.LastPlayedDate,
		p.Timezone,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create player: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Get loads a player with stats and achievements.
func (r *PlayerRepository) Get(ctx context.Context, playerID int64) (*entities.Player, error) {
	return r.get(ctx, "SELECT"+playerColumns+"FROM players WHERE id = $1", playerID)
}

// GetForUpdate is Get with a row lock on the player, for use inside a transaction.
func (r *PlayerRepository) GetForUpdate(ctx context.Context, playerID int64) (*entities.Player, error) {
	return r.get(ctx, "SELECT"+playerColumns+"FROM players WHERE id = $1 FOR UPDATE", playerID)
}

func (r *PlayerRepository) get(ctx context.Context, query string, playerID int64) (*entities.Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	if err := r.loadCategoryStats(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadAchievements(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PlayerRepository) loadCategoryStats(ctx context.Context, p *entities.Player) error {
	query := `
		SELECT category, games_played, questions_answered, correct_answers, total_xp_earned,
		       best_score, perfect_games, average_score, last_played_at
		FROM player_category_stats
		WHERE player_id = $1
	`

	rows, err := r.db.Query(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("query category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			s        entities.CategoryStat
		)
		if err := rows.Scan(
			&category,
			&s.GamesPlayed,
			&s.QuestionsAnswered,
			&s.CorrectAnswers,
			&s.TotalXPEarned,
			&s.BestScore,
			&s.PerfectGames,
			&s.AverageScore,
			&s.LastPlayed,
		); err != nil {
			return fmt.Errorf("scan category stat: %w", err)
		}
		p.CategoryStats[entities.Category(category)] = s
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate category stats: %w", err)
	}
	return nil
}

func (r *PlayerRepository) loadAchievements(ctx context.Context, p *entities.Player) error {
	rows, err := r.db.Query(ctx, `SELECT achievement_id FROM player_achievements WHERE player_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan achievement: %w", err)
		}
		p.AddAchievement(id)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate achievements: %w", err)
	}
	return nil
}

// Update writes the player row, every category stat and any newly unlocked
// achievement. Achievements are never removed here; see ResetRepository.
func (r *PlayerRepository) Update(ctx context.Context, p *entities.Player) error {
	query := `
		UPDATE players SET
			chat_id = $2,
			username = $3,
			total_xp = $4,
			level = $5,
			current_streak = $6,
			longest_streak = $7,
			last_played_at = $8,
			timezone = $9,
			last_reminded_at = $10,
			updated_at = $11
		WHERE id = $1
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		p.ID,
		p.ChatID,
		p.Username,
		p.TotalXP,
		p.Level,
		p.CurrentStreak,
		p.LongestStreak,
		p.LastPlayedDate,
		p.Timezone,
		p.LastRemindedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}

	for category, s := range p.CategoryStats {
		if err := r.upsertCategoryStat(ctx, p.ID, category, s); err != nil {
			return err
		}
	}

	for _, id := range p.AchievementIDs() {
		_, err := r.db.Exec(ctx, `
			INSERT INTO player_achievements (player_id, achievement_id, unlocked_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, achievement_id) DO NOTHING
		`, p.ID, id, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save achievement %s: %w", id, err)
		}
	}

	return nil
}

// SaveAchievements inserts newly unlocked achievements and writes XP and
// level in one statement. Other columns are left alone so a concurrent
// timezone change or reminder stamp is not overwritten.
func (r *PlayerRepository) SaveAchievements(
	ctx context.Context, playerID int64, ids []string, totalXP, level int, at time.Time,
) error {
	query := `
		WITH updated AS (
			UPDATE players SET total_xp = $2, level = $3, updated_at = $4
			WHERE id = $1
			RETURNING id
		)
		INSERT INTO player_achievements (player_id, achievement_id, unlocked_at)
		SELECT updated.id, a.id, $4
		FROM updated, unnest($5::text[]) AS a(id)
		ON CONFLICT (player_id, achievement_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, playerID, totalXP, level, at, ids)
	if err != nil {
		return fmt.Errorf("save achievements: %w", err)
	}
	if len(ids) > 0 && tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (r *PlayerRepository) upsertCategoryStat(
	ctx context.Context, playerID int64, category entities.Category, s entities.CategoryStat,
) error {
	query := `
		INSERT INTO player_category_stats (
			player_id, category, games_played, questions_answered, correct_answers,
			total_xp_earned, best_score, perfect_games, average_score, last_played_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (player_id, category) DO UPDATE SET
			games_played = EXCLUDED.games_played,
			questions_answered = EXCLUDED.questions_answered,
			correct_answers = EXCLUDED.correct_answers,
			total_xp_earned = EXCLUDED.total_xp_earned,
			best_score = EXCLUDED.best_score,
			perfect_games = EXCLUDED.perfect_games,
			average_score = EXCLUDED.average_score,
			last_played_at = EXCLUDED.last_played_at
	`

	_, err := r.db.Exec(
		ctx,
		query,
		playerID,
		string(category),
		s.GamesPlayed,
		s.QuestionsAnswered,
		s.CorrectAnswers,
		s.TotalXPEarned,
		s.BestScore,
		s.PerfectGames,
		s.AverageScore,
		s.LastPlayed,
	)
	if err != nil {
		return fmt.Errorf("upsert category stat %s: %w", category, err)
	}
	return nil
}

// SetTimezone stores the player's calendar timezone.
func (r *PlayerRepository) SetTimezone(ctx context.Context, playerID int64, tz string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET timezone = $2, updated_at = NOW() WHERE id = $1`, playerID, tz)
	if err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// Delete removes the player; sessions, stats and achievements cascade.
func (r *PlayerRepository) Delete(ctx context.Context, playerID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ListStreakCandidates returns players with a live streak who have not
// been reminded since `since`. Stats and achievements are not loaded.
func (r *PlayerRepository) ListStreakCandidates(ctx context.Context, since time.Time) ([]*entities.Player, error) {
	query := "SELECT" + playerColumns + `
		FROM players
		WHERE current_streak > 0
		  AND last_played_at IS NOT NULL
		  AND (last_reminded_at IS NULL OR last_reminded_at < $1)
		ORDER BY id
	`

	return r.list(ctx, query, since)
}

// MarkReminded stamps the time a streak reminder was sent.
func (r *PlayerRepository) MarkReminded(ctx context.Context, playerID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE players SET last_reminded_at = $2 WHERE id = $1`, playerID, at)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

// ResetStreak zeroes a broken day streak. The update only applies while
// last_played_at still equals lastPlayed, so a session recorded in the
// meantime keeps its streak.
func (r *PlayerRepository) ResetStreak(ctx context.Context, playerID int64, lastPlayed time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE players SET current_streak = 0, updated_at = NOW()
		WHERE id = $1 AND last_played_at = $2 AND current_streak > 0
	`, playerID, lastPlayed)
	if err != nil {
		return fmt.Errorf("reset streak: %w", err)
	}
	return nil
}

// TopByXP returns players ordered by XP then level, used to seed the
// leaderboard cache.
func (r *PlayerRepository) TopByXP(ctx context.Context, limit int) ([]*entities.Player, error) {
	query := "SELECT" + playerColumns + `
		FROM players
		ORDER BY total_xp DESC, level DESC, id
		LIMIT $1
	`

	return r.list(ctx, query, limit)
}

func (r *PlayerRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Player, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []*entities.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
