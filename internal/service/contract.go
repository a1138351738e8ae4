package service

import (
	"context"
	"time"

	"competition-ledger/internal/domain/models"
)

// Transactor runs a multi-write operation as one unit. Lock serializes
// writers on the named aggregates for the rest of the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Lock(ctx context.Context, keys ...string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByLogin(ctx context.Context, emailOrUsername string) (*models.User, error)
	// ListTeamMembers returns the members of a team in join order, without their
	// project and submission sets.
	ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error)
	SetUserTeam(ctx context.Context, userID, teamID string, isLeader bool, joinedAt time.Time) error
	ClearUserTeam(ctx context.Context, userID string) error
	SetTeamLeader(ctx context.Context, userID string, isLeader bool) error
	AddUserProjects(ctx context.Context, userID string, projectIDs ...string) error
	AddUserPoints(ctx context.Context, userID string, delta int) error
}

type TeamRepository interface {
	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	GetTeamByInvitationCode(ctx context.Context, code string) (*models.Team, error)
	TeamNameExists(ctx context.Context, name string) (bool, error)
	InvitationCodeExists(ctx context.Context, code string) (bool, error)
	DeleteTeam(ctx context.Context, teamID string) error
	AddTeamProject(ctx context.Context, teamID, projectID string) error
	AddTeamPoints(ctx context.Context, teamID string, delta int) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	ListProjects(ctx context.Context, status *models.ProjectStatus) ([]models.Project, error)
	UpdateProjectStatus(ctx context.Context, projectID string, status models.ProjectStatus) error
	AddProjectParticipant(ctx context.Context, projectID string, participant models.Participant) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error)
	SubmissionExists(ctx context.Context, projectID string, by models.Participant) (bool, error)
	ListProjectSubmissions(ctx context.Context, projectID string) ([]models.Submission, error)
	SaveReview(ctx context.Context, submission *models.Submission) error
	SaveRanking(ctx context.Context, submission *models.Submission) error
}

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invitation *models.TeamInvitation) error
	GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error)
	FindPendingInvitation(ctx context.Context, teamID, userID string) (*models.TeamInvitation, error)
	ListPendingInvitations(ctx context.Context, userID string) ([]models.TeamInvitation, error)
	SetInvitationStatus(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error
	CancelUserInvitations(ctx context.Context, userID, exceptID string, at time.Time) (int, error)
	CancelTeamInvitations(ctx context.Context, teamID string, at time.Time) (int, error)
}

type LedgerRepository interface {
	AppendTransaction(ctx context.Context, tx *models.PointTransaction) error
	ListTransactions(ctx context.Context, recipient models.Participant) ([]models.PointTransaction, error)
}

type StandingsRepository interface {
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	TopTeams(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// LeaderboardCache mirrors balances for fast leaderboard reads. Top reports
// false when the cache holds nothing for kind.
type LeaderboardCache interface {
	Increment(ctx context.Context, recipient models.Participant, name string, delta int) error
	Top(ctx context.Context, kind models.ParticipantKind, limit int) ([]models.LeaderboardEntry, bool, error)
	Replace(ctx context.Context, kind models.ParticipantKind, entries []models.LeaderboardEntry) error
	Remove(ctx context.Context, participant models.Participant) error
}

// Storage bundles every repository contract. Both the PostgreSQL repositories
// and the in-memory store satisfy it.
type Storage interface {
	Transactor
	UserRepository
	TeamRepository
	ProjectRepository
	SubmissionRepository
	InvitationRepository
	LedgerRepository
	StandingsRepository
}
