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

const projectColumns = `id, title, description, type, status, start_date, end_date,
	first_place_points, second_place_points, third_place_points, other_participants_points,
	created_by, created_at`

type ProjectRepo struct {
	storage postgresql.Conn
}

func NewProjectRepo(storage postgresql.Conn) *ProjectRepo {
	return &ProjectRepo{storage: storage}
}

func (r *ProjectRepo) CreateProject(ctx context.Context, project *models.Project) error {
	const op = "repo.project.CreateProject"

	query := `
		INSERT INTO projects (id, title, description, type, status, start_date, end_date,
			first_place_points, second_place_points, third_place_points, other_participants_points,
			created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query,
		project.ID, project.Title, project.Description, project.Type, project.Status,
		project.StartDate, project.EndDate,
		project.FirstPlacePoints, project.SecondPlacePoints, project.ThirdPlacePoints, project.OtherParticipantsPoints,
		project.CreatedBy, project.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: project %s already exists", op, project.ID)
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, participant := range project.Participants {
		if err := r.AddProjectParticipant(ctx, project.ID, participant); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *ProjectRepo) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	const op = "repo.project.GetProject"

	db := r.storage.Executor(ctx)

	var project models.Project
	err := sqlx.GetContext(ctx, db, &project, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.materialize(ctx, db, &project); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &project, nil
}

func (r *ProjectRepo) ListProjects(ctx context.Context, status *models.ProjectStatus) ([]models.Project, error) {
	const op = "repo.project.ListProjects"

	db := r.storage.Executor(ctx)

	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE $1::text IS NULL OR status = $1
		ORDER BY start_date, id
	`

	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}

	var projects []models.Project
	if err := sqlx.SelectContext(ctx, db, &projects, query, filter); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range projects {
		if err := r.materialize(ctx, db, &projects[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return projects, nil
}

func (r *ProjectRepo) UpdateProjectStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	const op = "repo.project.UpdateProjectStatus"

	result, err := r.storage.Executor(ctx).ExecContext(ctx, `UPDATE projects SET status = $2 WHERE id = $1`, projectID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
	}

	return nil
}

func (r *ProjectRepo) AddProjectParticipant(ctx context.Context, projectID string, participant models.Participant) error {
	const op = "repo.project.AddProjectParticipant"

	var userID, teamID *string
	if participant.IsTeam() {
		teamID = &participant.ID
	} else {
		userID = &participant.ID
	}

	query := `INSERT INTO project_participants (project_id, user_id, team_id) VALUES ($1, $2, $3)`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query, projectID, userID, teamID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyRegistered)
		}
		if isForeignKeyError(err) {
			switch violatedConstraint(err) {
			case "project_participants_user_id_fkey":
				return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
			case "project_participants_team_id_fkey":
				return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
			}
			return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ProjectRepo) materialize(ctx context.Context, db sqlx.QueryerContext, project *models.Project) error {
	participantsQuery := `
		SELECT user_id, team_id
		FROM project_participants
		WHERE project_id = $1
		ORDER BY id
	`

	var rows []struct {
		UserID *string `db:"user_id"`
		TeamID *string `db:"team_id"`
	}
	if err := sqlx.SelectContext(ctx, db, &rows, participantsQuery, project.ID); err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for _, row := range rows {
		if row.TeamID != nil {
			project.Participants = append(project.Participants, models.TeamParticipant(*row.TeamID))
		} else if row.UserID != nil {
			project.Participants = append(project.Participants, models.UserParticipant(*row.UserID))
		}
	}

	submissionsQuery := `SELECT id FROM submissions WHERE project_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, db, &project.Submissions, submissionsQuery, project.ID); err != nil {
		return fmt.Errorf("failed to get submissions: %w", err)
	}

	return nil
}
