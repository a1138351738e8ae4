package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

func TestLeaderboardFollowsLedger(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")
	team := e.team("Foo", alice, bob)
	project := e.project(models.ProjectTeam, standardRewards)

	_, err := e.scoring.RankSubmission(e.ctx, e.admin, e.approvedSubmission(project, alice).ID, 1)
	require.NoError(t, err)
	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(bob), Delta: 5})
	require.NoError(t, err)
	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(e.admin), Delta: 1000})
	require.NoError(t, err)

	users, err := e.leaderboard.TopUsers(e.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{
		{Rank: 1, ID: bob, Name: "bob", Points: 55},
		{Rank: 2, ID: alice, Name: "alice", Points: 50},
	}, users)

	teams, err := e.leaderboard.TopTeams(e.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Rank: 1, ID: team.ID, Name: "Foo", Points: 100}}, teams)
}

func TestLeaderboardFallsBackToStorage(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")

	e.cache.down = true
	_, err := e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(alice), Delta: 10})
	require.NoError(t, err)

	top, err := e.leaderboard.TopUsers(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Rank: 1, ID: alice, Name: "alice", Points: 10}}, top)

	e.cache.down = false
	require.NoError(t, e.leaderboard.Rebuild(e.ctx))

	top, err = e.leaderboard.TopUsers(e.ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, alice, top[0].ID)
	assert.Equal(t, bob, top[1].ID)
}

func TestLeaderboardWithoutCache(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	_, err := e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(alice), Delta: 3})
	require.NoError(t, err)

	board := service.NewLeaderboardService(discardLogger(), e.store, nil)
	require.NoError(t, board.Rebuild(e.ctx))

	top, err := board.TopUsers(e.ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Rank: 1, ID: alice, Name: "alice", Points: 3}}, top)
}
