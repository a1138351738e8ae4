package leaderboard_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competition-ledger/internal/cache/leaderboard"
	"competition-ledger/internal/config"
	"competition-ledger/internal/domain/models"
)

func newCache(t *testing.T) (*leaderboard.Cache, *redis.Client, string) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	rdb, err := leaderboard.Connect(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)

	prefix := "test:" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		rdb.Close()
	})

	return leaderboard.New(rdb, prefix), rdb, prefix
}

func TestTopMissesUntilReplaced(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Increment(ctx, models.UserParticipant("u1"), "alice", 10))

	_, hit, err := c.Top(ctx, models.ParticipantUser, 10)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Replace(ctx, models.ParticipantUser, []models.LeaderboardEntry{
		{ID: "u1", Name: "alice", Points: 10},
		{ID: "u2", Name: "bob", Points: 40},
	}))

	top, hit, err := c.Top(ctx, models.ParticipantUser, 10)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []models.LeaderboardEntry{
		{Rank: 1, ID: "u2", Name: "bob", Points: 40},
		{Rank: 2, ID: "u1", Name: "alice", Points: 10},
	}, top)
}

func TestIncrementReorders(t *testing.T) {
	c, rdb, prefix := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Replace(ctx, models.ParticipantTeam, []models.LeaderboardEntry{
		{ID: "t1", Name: "Foo", Points: 5},
		{ID: "t2", Name: "Bar", Points: 20},
	}))
	require.NoError(t, c.Increment(ctx, models.TeamParticipant("t1"), "Foo", 30))
	require.NoError(t, c.Increment(ctx, models.TeamParticipant("t3"), "Baz", 1))

	top, hit, err := c.Top(ctx, models.ParticipantTeam, 2)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []models.LeaderboardEntry{
		{Rank: 1, ID: "t1", Name: "Foo", Points: 35},
		{Rank: 2, ID: "t2", Name: "Bar", Points: 20},
	}, top)

	score, err := rdb.ZScore(ctx, prefix+":Team", "t3").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(1), score)

	_, err = rdb.ZScore(ctx, prefix+":Team", "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRemoveDropsParticipant(t *testing.T) {
	c, rdb, prefix := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Replace(ctx, models.ParticipantTeam, []models.LeaderboardEntry{
		{ID: "t1", Name: "Foo", Points: 10},
		{ID: "t2", Name: "Bar", Points: 5},
	}))
	require.NoError(t, c.Remove(ctx, models.TeamParticipant("t1")))
	require.NoError(t, c.Remove(ctx, models.TeamParticipant("never-cached")))

	top, hit, err := c.Top(ctx, models.ParticipantTeam, 10)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []models.LeaderboardEntry{{Rank: 1, ID: "t2", Name: "Bar", Points: 5}}, top)

	exists, err := rdb.HExists(ctx, prefix+":Team:names", "t1").Result()
	require.NoError(t, err)
	assert.False(t, exists)
}
