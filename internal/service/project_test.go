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

func TestCreateProjectValidation(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")

	valid := service.CreateProjectInput{
		Title:     "Compilers",
		Type:      models.ProjectIndividual,
		StartDate: epoch,
		EndDate:   epoch.Add(48 * time.Hour),
		Rewards:   standardRewards,
	}

	_, err := e.projects.CreateProject(e.ctx, alice, valid)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	cases := map[string]struct {
		mutate func(in *service.CreateProjectInput)
		want   error
	}{
		"missing title": {func(in *service.CreateProjectInput) { in.Title = " " }, apperrors.ErrProjectTitleRequired},
		"bad type":      {func(in *service.CreateProjectInput) { in.Type = "mixed" }, apperrors.ErrInvalidProjectType},
		"bad status":    {func(in *service.CreateProjectInput) { in.Status = "open" }, apperrors.ErrInvalidProjectStatus},
		"same dates":    {func(in *service.CreateProjectInput) { in.EndDate = in.StartDate }, apperrors.ErrInvalidProjectDates},
		"negative":      {func(in *service.CreateProjectInput) { in.Rewards.ThirdPlacePoints = -1 }, apperrors.ErrInvalidRewards},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := e.projects.CreateProject(e.ctx, e.admin, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	}

	p, err := e.projects.CreateProject(e.ctx, e.admin, valid)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectDraft, p.Status)
	assert.Equal(t, e.admin, *p.CreatedBy)
	assert.Equal(t, 75, p.SecondPlacePoints)
}

func TestUpdateProjectStatusAndList(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	first := e.project(models.ProjectIndividual, standardRewards)
	second := e.project(models.ProjectTeam, standardRewards)

	_, err := e.projects.UpdateProjectStatus(e.ctx, alice, first.ID, models.ProjectCompleted)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	_, err = e.projects.UpdateProjectStatus(e.ctx, e.admin, first.ID, "closed")
	assert.ErrorIs(t, err, apperrors.ErrInvalidProjectStatus)

	_, err = e.projects.UpdateProjectStatus(e.ctx, e.admin, "missing", models.ProjectCompleted)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)

	updated, err := e.projects.UpdateProjectStatus(e.ctx, e.admin, first.ID, models.ProjectCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, updated.Status)

	all, err := e.projects.ListProjects(e.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := models.ProjectActive
	onlyActive, err := e.projects.ListProjects(e.ctx, &active)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, second.ID, onlyActive[0].ID)

	_, err = e.registration.RegisterToProject(e.ctx, alice, first.ID)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotActive)
}
