package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/repo/memory"
	"competition-ledger/internal/service"
)

var _ service.Storage = (*memory.Store)(nil)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var standardRewards = models.Rewards{
	FirstPlacePoints:        100,
	SecondPlacePoints:       75,
	ThirdPlacePoints:        50,
	OtherParticipantsPoints: 25,
}

type env struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	now   time.Time
	seq   int
	cache *fakeCache

	users        *service.UserService
	membership   *service.MembershipService
	invitations  *service.InvitationService
	registration *service.RegistrationService
	projects     *service.ProjectService
	scoring      *service.ScoringService
	leaderboard  *service.LeaderboardService

	admin string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		t:     t,
		ctx:   context.Background(),
		store: memory.New(),
		now:   epoch,
		cache: newFakeCache(),
	}

	log := discardLogger()
	opts := []service.Option{
		service.WithClock(func() time.Time { return e.now }),
		service.WithIDGenerator(func() string {
			e.seq++
			return fmt.Sprintf("id-%03d", e.seq)
		}),
	}

	s := e.store
	e.users = service.NewUserService(log, s, opts...)
	e.membership = service.NewMembershipService(log, s, s, s, s, s, e.cache, service.TeamLimits{MinMembers: 2, MaxMembers: 5}, opts...)
	e.invitations = service.NewInvitationService(log, s, s, s, s, e.membership, 0, opts...)
	e.registration = service.NewRegistrationService(log, s, s, s, s, opts...)
	e.projects = service.NewProjectService(log, s, s, opts...)
	e.scoring = service.NewScoringService(log, s, s, s, s, s, s, e.cache, opts...)
	e.leaderboard = service.NewLeaderboardService(log, s, e.cache)

	admin, err := e.users.EnsureUser(e.ctx, service.CreateUserInput{
		ID:       "admin",
		Username: "admin",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	e.admin = admin.ID

	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *env) user(name string) string {
	e.t.Helper()

	u, err := e.users.CreateUser(e.ctx, e.admin, service.CreateUserInput{
		ID:       name,
		Username: name,
		Email:    name + "@example.com",
	})
	require.NoError(e.t, err)
	return u.ID
}

// team creates a team led by leader with the given extra members.
func (e *env) team(name, leader string, members ...string) *models.Team {
	e.t.Helper()

	team, err := e.membership.CreateTeam(e.ctx, leader, service.CreateTeamInput{Name: name})
	require.NoError(e.t, err)
	for _, m := range members {
		team, err = e.membership.JoinByCode(e.ctx, m, team.InvitationCode)
		require.NoError(e.t, err)
	}
	return team
}

func (e *env) project(typ models.ProjectType, rewards models.Rewards) *models.Project {
	e.t.Helper()

	p, err := e.projects.CreateProject(e.ctx, e.admin, service.CreateProjectInput{
		Title:     fmt.Sprintf("%s challenge", typ),
		Type:      typ,
		Status:    models.ProjectActive,
		StartDate: epoch.Add(-24 * time.Hour),
		EndDate:   epoch.Add(14 * 24 * time.Hour),
		Rewards:   rewards,
	})
	require.NoError(e.t, err)
	return p
}

func (e *env) getUser(id string) *models.User {
	e.t.Helper()

	u, err := e.store.GetUser(e.ctx, id)
	require.NoError(e.t, err)
	return u
}

func (e *env) getTeam(id string) *models.Team {
	e.t.Helper()

	team, err := e.store.GetTeam(e.ctx, id)
	require.NoError(e.t, err)
	return team
}

// approvedSubmission registers by for p, submits and approves.
func (e *env) approvedSubmission(p *models.Project, by string) *models.Submission {
	e.t.Helper()

	_, err := e.registration.RegisterToProject(e.ctx, by, p.ID)
	require.NoError(e.t, err)

	sub, err := e.scoring.CreateSubmission(e.ctx, by, p.ID, service.CreateSubmissionInput{
		GithubLink: "https://github.com/" + by + "/solution",
	})
	require.NoError(e.t, err)

	sub, err = e.scoring.ReviewSubmission(e.ctx, e.admin, sub.ID, service.ReviewInput{Status: models.SubmissionApproved})
	require.NoError(e.t, err)
	return sub
}

func (e *env) requireValidLeadership(teamID string) {
	e.t.Helper()

	team := e.getTeam(teamID)
	require.GreaterOrEqual(e.t, len(team.Leaders), 1)
	require.LessOrEqual(e.t, len(team.Leaders), 2)
	for _, l := range team.Leaders {
		require.Contains(e.t, team.Members, l)
	}
}

type fakeCache struct {
	scores map[models.ParticipantKind]map[string]models.LeaderboardEntry
	down   bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{scores: map[models.ParticipantKind]map[string]models.LeaderboardEntry{
		models.ParticipantUser: {},
		models.ParticipantTeam: {},
	}}
}

func (c *fakeCache) Increment(_ context.Context, r models.Participant, name string, delta int) error {
	if c.down {
		return fmt.Errorf("cache down")
	}
	entry := c.scores[r.Kind][r.ID]
	entry.ID, entry.Name = r.ID, name
	entry.Points += delta
	c.scores[r.Kind][r.ID] = entry
	return nil
}

func (c *fakeCache) Top(_ context.Context, kind models.ParticipantKind, limit int) ([]models.LeaderboardEntry, bool, error) {
	if c.down {
		return nil, false, fmt.Errorf("cache down")
	}
	if len(c.scores[kind]) == 0 {
		return nil, false, nil
	}
	var out []models.LeaderboardEntry
	for _, entry := range c.scores[kind] {
		out = append(out, entry)
	}
	sortEntries(out)
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, true, nil
}

func (c *fakeCache) Replace(_ context.Context, kind models.ParticipantKind, entries []models.LeaderboardEntry) error {
	if c.down {
		return fmt.Errorf("cache down")
	}
	c.scores[kind] = map[string]models.LeaderboardEntry{}
	for _, entry := range entries {
		entry.Rank = 0
		c.scores[kind][entry.ID] = entry
	}
	return nil
}

func (c *fakeCache) Remove(_ context.Context, p models.Participant) error {
	if c.down {
		return fmt.Errorf("cache down")
	}
	delete(c.scores[p.Kind], p.ID)
	return nil
}

func sortEntries(entries []models.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
}
