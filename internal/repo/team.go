package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/storage/postgresql"
)

const teamColumns = `id, name, description, slogan, invitation_code, points, min_members, max_members, created_at`

type TeamRepo struct {
	storage postgresql.Conn
}

func NewTeamRepo(storage postgresql.Conn) *TeamRepo {
	return &TeamRepo{storage: storage}
}

func (r *TeamRepo) CreateTeam(ctx context.Context, team *models.Team) error {
	const op = "repo.team.CreateTeam"

	query := `
		INSERT INTO teams (id, name, description, slogan, invitation_code, points, min_members, max_members, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query,
		team.ID, team.Name, team.Description, team.Slogan, team.InvitationCode,
		team.Points, team.MinMembers, team.MaxMembers, team.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) && violatedConstraint(err) == "teams_invitation_code_key" {
			return fmt.Errorf("%s: invitation code already in use", op)
		}
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNameTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, projectID := range team.RegisteredProjects {
		if err := r.AddTeamProject(ctx, team.ID, projectID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *TeamRepo) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const op = "repo.team.GetTeam"

	team, err := r.getTeam(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return team, nil
}

func (r *TeamRepo) GetTeamByInvitationCode(ctx context.Context, code string) (*models.Team, error) {
	const op = "repo.team.GetTeamByInvitationCode"

	team, err := r.getTeam(ctx, `SELECT `+teamColumns+` FROM teams WHERE invitation_code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return team, nil
}

// getTeam loads a team row and materializes its member, leader, project and
// submission sets.
func (r *TeamRepo) getTeam(ctx context.Context, query string, arg string) (*models.Team, error) {
	db := r.storage.Executor(ctx)

	var team models.Team
	if err := sqlx.GetContext(ctx, db, &team, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, err
	}

	membersQuery := `
		SELECT id, is_team_leader
		FROM users
		WHERE team_id = $1
		ORDER BY team_joined_at, id
	`

	var members []struct {
		ID       string `db:"id"`
		IsLeader bool   `db:"is_team_leader"`
	}
	if err := sqlx.SelectContext(ctx, db, &members, membersQuery, team.ID); err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}
	for _, m := range members {
		team.Members = append(team.Members, m.ID)
		if m.IsLeader {
			team.Leaders = append(team.Leaders, m.ID)
		}
	}

	projectsQuery := `SELECT project_id FROM team_projects WHERE team_id = $1 ORDER BY seq`
	if err := sqlx.SelectContext(ctx, db, &team.RegisteredProjects, projectsQuery, team.ID); err != nil {
		return nil, fmt.Errorf("failed to get registered projects: %w", err)
	}

	submissionsQuery := `SELECT id FROM submissions WHERE submitted_by_team = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, db, &team.Submissions, submissionsQuery, team.ID); err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return &team, nil
}

func (r *TeamRepo) TeamNameExists(ctx context.Context, name string) (bool, error) {
	const op = "repo.team.TeamNameExists"

	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE name = $1)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.storage.Executor(ctx), &exists, query, name); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *TeamRepo) InvitationCodeExists(ctx context.Context, code string) (bool, error) {
	const op = "repo.team.InvitationCodeExists"

	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE invitation_code = $1)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.storage.Executor(ctx), &exists, query, code); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// DeleteTeam detaches the remaining members and removes the team. Project
// participation, submissions and invitations go with it through the foreign keys.
func (r *TeamRepo) DeleteTeam(ctx context.Context, teamID string) error {
	const op = "repo.team.DeleteTeam"

	db := r.storage.Executor(ctx)

	detachQuery := `
		UPDATE users
		SET team_id = NULL, is_team_leader = false, team_joined_at = NULL
		WHERE team_id = $1
	`
	if _, err := db.ExecContext(ctx, detachQuery, teamID); err != nil {
		return fmt.Errorf("%s: failed to detach members: %w", op, err)
	}

	result, err := db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}

	return nil
}

func (r *TeamRepo) AddTeamProject(ctx context.Context, teamID, projectID string) error {
	const op = "repo.team.AddTeamProject"

	query := `INSERT INTO team_projects (team_id, project_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query, teamID, projectID)
	if err != nil {
		if isForeignKeyError(err) {
			if violatedConstraint(err) == "team_projects_team_id_fkey" {
				return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
			}
			return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *TeamRepo) AddTeamPoints(ctx context.Context, teamID string, delta int) error {
	const op = "repo.team.AddTeamPoints"

	err := addPoints(ctx, r.storage.Executor(ctx), "teams", teamID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
