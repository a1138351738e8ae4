package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

func TestRegisterIndividual(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	project := e.project(models.ProjectIndividual, standardRewards)

	got, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Participant{models.UserParticipant(alice)}, got.Participants)
	assert.Equal(t, []string{project.ID}, e.getUser(alice).RegisteredProjects)

	_, err = e.registration.RegisterToProject(e.ctx, alice, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
}

func TestRegisterIndividualBlockedByTeammate(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")
	e.team("Foo", alice, bob)
	project := e.project(models.ProjectIndividual, standardRewards)

	_, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)

	_, err = e.registration.RegisterToProject(e.ctx, bob, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeammateRegistered)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Empty(t, e.getUser(bob).RegisteredProjects)
}

func TestRegisterTeamThenMemberIndividually(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")
	team := e.team("Foo", alice, bob)
	project := e.project(models.ProjectTeam, standardRewards)

	got, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Participant{models.TeamParticipant(team.ID)}, got.Participants)
	assert.Equal(t, []string{project.ID}, e.getTeam(team.ID).RegisteredProjects)
	for _, id := range []string{alice, bob} {
		assert.Equal(t, []string{project.ID}, e.getUser(id).RegisteredProjects)
	}

	_, err = e.registration.RegisterToProject(e.ctx, bob, project.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	p, err := e.projects.GetProject(e.ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, p.Participants, 1)
}

func TestRegisterTeamRules(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user("alice"), e.user("bob"), e.user("carol")
	project := e.project(models.ProjectTeam, standardRewards)

	_, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeamRequired)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	team := e.team("Foo", alice)
	_, err = e.registration.RegisterToProject(e.ctx, alice, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeamTooSmall)

	_, err = e.membership.JoinByCode(e.ctx, bob, team.InvitationCode)
	require.NoError(t, err)
	_, err = e.registration.RegisterToProject(e.ctx, bob, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrLeaderRequired)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)

	_, err = e.registration.RegisterToProject(e.ctx, carol, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeamRequired)
}

func TestRegisterTeamBlockedByIndividualRegistration(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user("alice"), e.user("bob"), e.user("carol")
	project := e.project(models.ProjectTeam, standardRewards)

	first := e.team("First", carol, bob)
	_, err := e.registration.RegisterToProject(e.ctx, carol, project.ID)
	require.NoError(t, err)

	// bob keeps a registration for the project after moving to another team.
	_, err = e.membership.LeaveTeam(e.ctx, bob, first.ID)
	require.NoError(t, err)
	require.NoError(t, e.store.AddUserProjects(e.ctx, bob, project.ID))

	e.team("Second", alice, bob)
	_, err = e.registration.RegisterToProject(e.ctx, alice, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrMemberRegisteredIndividually)
}

func TestRegistrationTimeBox(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")

	draft, err := e.projects.CreateProject(e.ctx, e.admin, service.CreateProjectInput{
		Title:     "Draft",
		Type:      models.ProjectIndividual,
		StartDate: epoch,
		EndDate:   epoch.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectDraft, draft.Status)

	_, err = e.registration.RegisterToProject(e.ctx, alice, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotActive)

	active := e.project(models.ProjectIndividual, standardRewards)
	e.now = active.EndDate.Add(time.Second)
	_, err = e.registration.RegisterToProject(e.ctx, alice, active.ID)
	assert.ErrorIs(t, err, apperrors.ErrProjectEnded)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = e.registration.RegisterToProject(e.ctx, alice, "missing")
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}
