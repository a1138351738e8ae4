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

const submissionColumns = `id, project_id, submitted_by_user, submitted_by_team, github_link, description,
	status, score, feedback, reviewed_by, reviewed_at, ranking, points_awarded, ranked_at, created_at`

type SubmissionRepo struct {
	storage postgresql.Conn
}

func NewSubmissionRepo(storage postgresql.Conn) *SubmissionRepo {
	return &SubmissionRepo{storage: storage}
}

func (r *SubmissionRepo) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	const op = "repo.submission.CreateSubmission"

	query := `
		INSERT INTO submissions (id, project_id, submitted_by_user, submitted_by_team, github_link,
			description, status, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query,
		submission.ID, submission.ProjectID, submission.SubmittedByUser, submission.SubmittedByTeam,
		submission.GithubLink, submission.Description, submission.Status, submission.Feedback, submission.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionExists)
		}
		if isForeignKeyError(err) && violatedConstraint(err) == "submissions_project_id_fkey" {
			return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *SubmissionRepo) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	const op = "repo.submission.GetSubmission"

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	var submission models.Submission
	err := sqlx.GetContext(ctx, r.storage.Executor(ctx), &submission, query, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &submission, nil
}

func (r *SubmissionRepo) SubmissionExists(ctx context.Context, projectID string, by models.Participant) (bool, error) {
	const op = "repo.submission.SubmissionExists"

	column := "submitted_by_user"
	if by.IsTeam() {
		column = "submitted_by_team"
	}
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM submissions WHERE project_id = $1 AND %s = $2)`, column)

	var exists bool
	if err := sqlx.GetContext(ctx, r.storage.Executor(ctx), &exists, query, projectID, by.ID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *SubmissionRepo) ListProjectSubmissions(ctx context.Context, projectID string) ([]models.Submission, error) {
	const op = "repo.submission.ListProjectSubmissions"

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE project_id = $1 ORDER BY created_at, id`

	var submissions []models.Submission
	if err := sqlx.SelectContext(ctx, r.storage.Executor(ctx), &submissions, query, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return submissions, nil
}

func (r *SubmissionRepo) SaveReview(ctx context.Context, submission *models.Submission) error {
	const op = "repo.submission.SaveReview"

	query := `
		UPDATE submissions
		SET status = $2, score = $3, feedback = $4, reviewed_by = $5, reviewed_at = $6
		WHERE id = $1
	`

	if err := r.update(ctx, query, submission.ID,
		submission.Status, submission.Score, submission.Feedback, submission.ReviewedBy, submission.ReviewedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *SubmissionRepo) SaveRanking(ctx context.Context, submission *models.Submission) error {
	const op = "repo.submission.SaveRanking"

	query := `UPDATE submissions SET ranking = $2, points_awarded = $3, ranked_at = $4 WHERE id = $1`

	if err := r.update(ctx, query, submission.ID,
		submission.Ranking, submission.PointsAwarded, submission.RankedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *SubmissionRepo) update(ctx context.Context, query string, id string, args ...any) error {
	result, err := r.storage.Executor(ctx).ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperrors.ErrSubmissionNotFound
	}

	return nil
}
