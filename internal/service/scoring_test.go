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

func TestTeamSubmissionRankedFirst(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")
	team := e.team("Foo", alice, bob)
	project := e.project(models.ProjectTeam, models.Rewards{FirstPlacePoints: 200, SecondPlacePoints: 100})

	sub := e.approvedSubmission(project, alice)
	require.NotNil(t, sub.SubmittedByTeam)
	assert.Equal(t, team.ID, *sub.SubmittedByTeam)

	report, err := e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, report.PointsAwarded)
	assert.Equal(t, 400, report.Total())

	assert.Equal(t, 200, e.getTeam(team.ID).Points)
	assert.Equal(t, 100, e.getUser(alice).Points)
	assert.Equal(t, 100, e.getUser(bob).Points)

	ranked, err := e.scoring.GetSubmission(e.ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, ranked.Ranking)
	assert.Equal(t, 1, *ranked.Ranking)
	assert.Equal(t, 200, *ranked.PointsAwarded)
	assert.Equal(t, epoch, *ranked.RankedAt)
}

func TestIndividualSubmissionBonusGoesToTeam(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("alice"), e.user("bob")
	team := e.team("Foo", alice, bob)
	project := e.project(models.ProjectIndividual, standardRewards)

	sub := e.approvedSubmission(project, alice)
	report, err := e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, []models.DistributionEntry{
		{RecipientType: models.ParticipantUser, RecipientID: alice, Name: "alice", Amount: 75, Kind: models.TransactionAwarded},
		{RecipientType: models.ParticipantTeam, RecipientID: team.ID, Name: "Foo", Amount: 38, Kind: models.TransactionBonus},
	}, report.Entries)
	assert.Equal(t, 75, e.getUser(alice).Points)
	assert.Equal(t, 0, e.getUser(bob).Points)
	assert.Equal(t, 38, e.getTeam(team.ID).Points)
}

func TestRankRequiresApprovedSubmission(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	project := e.project(models.ProjectIndividual, standardRewards)

	_, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)
	sub, err := e.scoring.CreateSubmission(e.ctx, alice, project.ID, service.CreateSubmissionInput{
		GithubLink: "https://github.com/alice/solution",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)

	_, err = e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionNotApproved)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = e.scoring.ReviewSubmission(e.ctx, e.admin, sub.ID, service.ReviewInput{Status: models.SubmissionRejected})
	require.NoError(t, err)
	_, err = e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionNotApproved)

	assert.Equal(t, 0, e.getUser(alice).Points)
}

func TestRankIsOneWay(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	project := e.project(models.ProjectIndividual, standardRewards)
	sub := e.approvedSubmission(project, alice)

	_, err := e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRanking)

	_, err = e.scoring.RankSubmission(e.ctx, alice, sub.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	_, err = e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 3)
	require.NoError(t, err)

	_, err = e.scoring.RankSubmission(e.ctx, e.admin, sub.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRanked)

	_, err = e.scoring.ReviewSubmission(e.ctx, e.admin, sub.ID, service.ReviewInput{Status: models.SubmissionRejected})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRanked)

	assert.Equal(t, 50, e.getUser(alice).Points)
}

func TestReviewOverwritesPreviousDecision(t *testing.T) {
	e := newEnv(t)
	alice, other := e.user("alice"), "reviewer"
	_, err := e.users.CreateUser(e.ctx, e.admin, service.CreateUserInput{
		ID: other, Username: other, Email: other + "@example.com", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	project := e.project(models.ProjectIndividual, standardRewards)
	sub := e.approvedSubmission(project, alice)

	score := 120
	_, err = e.scoring.ReviewSubmission(e.ctx, e.admin, sub.ID, service.ReviewInput{Status: models.SubmissionApproved, Score: &score})
	assert.ErrorIs(t, err, apperrors.ErrInvalidScore)

	_, err = e.scoring.ReviewSubmission(e.ctx, e.admin, sub.ID, service.ReviewInput{Status: models.SubmissionPending})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReviewStatus)

	_, err = e.scoring.ReviewSubmission(e.ctx, alice, sub.ID, service.ReviewInput{Status: models.SubmissionRejected})
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	score = 42
	e.now = e.now.Add(time.Hour)
	got, err := e.scoring.ReviewSubmission(e.ctx, other, sub.ID, service.ReviewInput{
		Status:   models.SubmissionRejected,
		Score:    &score,
		Feedback: " needs tests ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, got.Status)
	assert.Equal(t, 42, *got.Score)
	assert.Equal(t, "needs tests", got.Feedback)
	assert.Equal(t, other, *got.ReviewedBy)
	assert.Equal(t, e.now, *got.ReviewedAt)
}

func TestCreateSubmissionRules(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user("alice"), e.user("bob"), e.user("carol")
	foo := e.team("Foo", alice, bob)
	individual := e.project(models.ProjectIndividual, standardRewards)
	team := e.project(models.ProjectTeam, standardRewards)
	link := service.CreateSubmissionInput{GithubLink: "https://github.com/foo/bar"}

	_, err := e.scoring.CreateSubmission(e.ctx, carol, individual.ID, link)
	assert.ErrorIs(t, err, apperrors.ErrNotRegistered)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = e.scoring.CreateSubmission(e.ctx, carol, team.ID, link)
	assert.ErrorIs(t, err, apperrors.ErrTeamRequired)

	_, err = e.registration.RegisterToProject(e.ctx, alice, team.ID)
	require.NoError(t, err)

	for _, bad := range []string{"", "https://gitlab.com/foo/bar", "https://github.com/foo", "ftp://github.com/foo/bar"} {
		_, err = e.scoring.CreateSubmission(e.ctx, bob, team.ID, service.CreateSubmissionInput{GithubLink: bad})
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err), "link=%q", bad)
	}

	sub, err := e.scoring.CreateSubmission(e.ctx, bob, team.ID, link)
	require.NoError(t, err)
	assert.Equal(t, models.TeamParticipant(foo.ID), sub.Submitter())

	_, err = e.scoring.CreateSubmission(e.ctx, alice, team.ID, link)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionExists)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	subs, err := e.scoring.ListProjectSubmissions(e.ctx, e.admin, team.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = e.scoring.ListProjectSubmissions(e.ctx, alice, team.ID)
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)
}

func TestCreateSubmissionAfterDeadline(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	project := e.project(models.ProjectIndividual, standardRewards)
	_, err := e.registration.RegisterToProject(e.ctx, alice, project.ID)
	require.NoError(t, err)

	e.now = project.EndDate.Add(1)
	_, err = e.scoring.CreateSubmission(e.ctx, alice, project.ID, service.CreateSubmissionInput{
		GithubLink: "https://github.com/alice/late",
	})
	assert.ErrorIs(t, err, apperrors.ErrProjectEnded)
}

func TestAddPoints(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")
	team := e.team("Foo", alice)

	_, err := e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(alice)})
	assert.ErrorIs(t, err, apperrors.ErrZeroDelta)

	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Delta: 5})
	assert.ErrorIs(t, err, apperrors.ErrPointsTarget)

	_, err = e.scoring.AddPoints(e.ctx, alice, service.AddPointsInput{Target: models.UserParticipant(alice), Delta: 5})
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	txn, err := e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.TeamParticipant(team.ID), Delta: 30, Reason: "hackathon host"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionManualAdjustment, txn.Kind)
	assert.Equal(t, 30, e.getTeam(team.ID).Points)

	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.TeamParticipant(team.ID), Delta: -31})
	assert.ErrorIs(t, err, apperrors.ErrNegativeBalance)
	assert.Equal(t, 30, e.getTeam(team.ID).Points)

	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.TeamParticipant(team.ID), Delta: -10})
	require.NoError(t, err)

	txs, err := e.scoring.ListTransactions(e.ctx, models.TeamParticipant(team.ID))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "hackathon host", txs[0].Reason)
	assert.Equal(t, "manual adjustment", txs[1].Reason)

	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant("ghost"), Delta: 1})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestLedgerSumsToBalance(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user("alice"), e.user("bob"), e.user("carol")
	team := e.team("Foo", alice, bob)
	solo := e.project(models.ProjectIndividual, standardRewards)
	group := e.project(models.ProjectTeam, standardRewards)

	_, err := e.scoring.RankSubmission(e.ctx, e.admin, e.approvedSubmission(solo, carol).ID, 1)
	require.NoError(t, err)
	_, err = e.scoring.RankSubmission(e.ctx, e.admin, e.approvedSubmission(solo, bob).ID, 4)
	require.NoError(t, err)
	_, err = e.scoring.RankSubmission(e.ctx, e.admin, e.approvedSubmission(group, alice).ID, 2)
	require.NoError(t, err)
	_, err = e.scoring.AddPoints(e.ctx, e.admin, service.AddPointsInput{Target: models.UserParticipant(alice), Delta: -7})
	require.NoError(t, err)

	balances := map[models.Participant]int{
		models.UserParticipant(alice):   e.getUser(alice).Points,
		models.UserParticipant(bob):     e.getUser(bob).Points,
		models.UserParticipant(carol):   e.getUser(carol).Points,
		models.TeamParticipant(team.ID): e.getTeam(team.ID).Points,
	}
	assert.Equal(t, 38-7, balances[models.UserParticipant(alice)])
	assert.Equal(t, 25+38, balances[models.UserParticipant(bob)])
	assert.Equal(t, 100, balances[models.UserParticipant(carol)])
	assert.Equal(t, 13+75, balances[models.TeamParticipant(team.ID)])

	for recipient, balance := range balances {
		txs, err := e.scoring.ListTransactions(e.ctx, recipient)
		require.NoError(t, err)
		sum := 0
		for _, tx := range txs {
			sum += tx.Amount
		}
		assert.Equal(t, balance, sum, recipient.String())
	}
}
