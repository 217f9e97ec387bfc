// Package redis keeps the XP and streak leaderboards in sorted sets.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

const (
	LeaderboardXPKey     = "leaderboard:xp"
	LeaderboardStreakKey = "leaderboard:streak"
	leaderboardNamesKey  = "leaderboard:names"

	// xpScoreScale packs the level under the XP so equal XP ranks by level.
	xpScoreScale = 1000
)

// Board selects a leaderboard.
type Board string

const (
	BoardXP     Board = "xp"
	BoardStreak Board = "streak"
)

func (b Board) key() string {
	if b == BoardStreak {
		return LeaderboardStreakKey
	}
	return LeaderboardXPKey
}

// Entry is one leaderboard row.
type Entry struct {
	PlayerID int64
	Username string
	Score    int64 // XP or longest streak
	Rank     int64 // 1-based
}

// LeaderboardRepository handles the sorted set operations.
type LeaderboardRepository struct {
	client *redis.Client
}

func NewLeaderboardRepository(client *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{client: client}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func member(playerID int64) string {
	return strconv.FormatInt(playerID, 10)
}

// Upsert writes the player's XP and longest streak in one round trip.
func (r *LeaderboardRepository) Upsert(ctx context.Context, p *entities.Player) error {
	m := member(p.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, LeaderboardXPKey, redis.Z{
			Score:  float64(p.TotalXP)*xpScoreScale + float64(p.Level),
			Member: m,
		})
		pipe.ZAdd(ctx, LeaderboardStreakKey, redis.Z{
			Score:  float64(p.LongestStreak),
			Member: m,
		})
		pipe.HSet(ctx, leaderboardNamesKey, m, p.Username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert leaderboard: %w", err)
	}
	return nil
}

// Remove drops the player from every board.
func (r *LeaderboardRepository) Remove(ctx context.Context, playerID int64) error {
	m := member(playerID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, LeaderboardXPKey, m)
		pipe.ZRem(ctx, LeaderboardStreakKey, m)
		pipe.HDel(ctx, leaderboardNamesKey, m)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove from leaderboard: %w", err)
	}
	return nil
}

// Top returns the best `limit` players of a board.
func (r *LeaderboardRepository) Top(ctx context.Context, board Board, limit int64) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	results, err := r.client.ZRevRangeWithScores(ctx, board.key(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", board, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	members := make([]string, len(results))
	for i, z := range results {
		members[i] = z.Member.(string)
	}
	names, err := r.client.HMGet(ctx, leaderboardNamesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard names: %w", err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		id, _ := strconv.ParseInt(members[i], 10, 64)
		entries[i] = Entry{
			PlayerID: id,
			Score:    boardScore(board, z.Score),
			Rank:     int64(i) + 1,
		}
		if name, ok := names[i].(string); ok {
			entries[i].Username = name
		}
	}

	return entries, nil
}

// Rank returns the player's 1-based rank on a board, or 0 when absent.
func (r *LeaderboardRepository) Rank(ctx context.Context, board Board, playerID int64) (int64, error) {
	rank, err := r.client.ZRevRank(ctx, board.key(), member(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rank %s: %w", board, err)
	}
	return rank + 1, nil
}

// Size is the number of players on a board.
func (r *LeaderboardRepository) Size(ctx context.Context, board Board) (int64, error) {
	n, err := r.client.ZCard(ctx, board.key()).Result()
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", board, err)
	}
	return n, nil
}

func boardScore(board Board, score float64) int64 {
	if board == BoardXP {
		return int64(score) / xpScoreScale
	}
	return int64(score)
}
