// Package leaderboard mirrors user and team balances in Redis sorted sets.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"competition-ledger/internal/config"
	"competition-ledger/internal/domain/models"
)

const defaultPrefix = "leaderboard"

type Cache struct {
	rdb    *redis.Client
	prefix string
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	const op = "cache.leaderboard.Connect"

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return rdb, nil
}

func New(rdb *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{rdb: rdb, prefix: prefix}
}

func (c *Cache) scoresKey(kind models.ParticipantKind) string {
	return c.prefix + ":" + string(kind)
}

func (c *Cache) namesKey(kind models.ParticipantKind) string {
	return c.prefix + ":" + string(kind) + ":names"
}

// Increment applies delta to a cached balance. A board that was never built
// is left alone so that reads keep falling back to storage until Replace runs.
func (c *Cache) Increment(ctx context.Context, recipient models.Participant, name string, delta int) error {
	const op = "cache.leaderboard.Increment"

	key := c.scoresKey(recipient.Kind)

	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists == 0 {
		return nil
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, key, float64(delta), recipient.ID)
		pipe.HSet(ctx, c.namesKey(recipient.Kind), recipient.ID, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Top returns the best limit entries of kind. It reports false when the board
// has not been built.
func (c *Cache) Top(ctx context.Context, kind models.ParticipantKind, limit int) ([]models.LeaderboardEntry, bool, error) {
	const op = "cache.leaderboard.Top"

	key := c.scoresKey(kind)

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	scores, err := c.rdb.ZRevRangeWithScores(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if len(scores) == 0 {
		exists, err := c.rdb.Exists(ctx, key).Result()
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return nil, exists > 0, nil
	}

	ids := make([]string, len(scores))
	for i, z := range scores {
		ids[i] = z.Member.(string)
	}

	names, err := c.rdb.HMGet(ctx, c.namesKey(kind), ids...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.LeaderboardEntry, len(scores))
	for i, z := range scores {
		name, _ := names[i].(string)
		entries[i] = models.LeaderboardEntry{
			Rank:   i + 1,
			ID:     ids[i],
			Name:   name,
			Points: int(z.Score),
		}
	}

	return entries, true, nil
}

// Replace rebuilds the board of kind from entries.
func (c *Cache) Replace(ctx context.Context, kind models.ParticipantKind, entries []models.LeaderboardEntry) error {
	const op = "cache.leaderboard.Replace"

	key, namesKey := c.scoresKey(kind), c.namesKey(kind)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, namesKey)
		if len(entries) == 0 {
			return nil
		}

		members := make([]redis.Z, len(entries))
		names := make([]string, 0, 2*len(entries))
		for i, e := range entries {
			members[i] = redis.Z{Score: float64(e.Points), Member: e.ID}
			names = append(names, e.ID, e.Name)
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.HSet(ctx, namesKey, names)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Remove drops a participant from its board.
func (c *Cache) Remove(ctx context.Context, participant models.Participant) error {
	const op = "cache.leaderboard.Remove"

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, c.scoresKey(participant.Kind), participant.ID)
		pipe.HDel(ctx, c.namesKey(participant.Kind), participant.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
