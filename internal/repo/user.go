package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/storage/postgresql"
)

const userColumns = `id, username, email, role, points, team_id, is_team_leader, team_joined_at, created_at`

type UserRepo struct {
	storage postgresql.Conn
}

func NewUserRepo(storage postgresql.Conn) *UserRepo {
	return &UserRepo{storage: storage}
}

func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	const op = "repo.user.CreateUser"

	query := `
		INSERT INTO users (id, username, email, role, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Role, user.Points, user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(user.RegisteredProjects) > 0 {
		if err := r.AddUserProjects(ctx, user.ID, user.RegisteredProjects...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *UserRepo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "repo.user.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.getUser(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *UserRepo) GetUserByLogin(ctx context.Context, emailOrUsername string) (*models.User, error) {
	const op = "repo.user.GetUserByLogin"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		ORDER BY lower(email) = lower($1) DESC
		LIMIT 1
	`

	user, err := r.getUser(ctx, query, emailOrUsername)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *UserRepo) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	db := r.storage.Executor(ctx)

	var user models.User
	if err := sqlx.GetContext(ctx, db, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	projectsQuery := `SELECT project_id FROM user_projects WHERE user_id = $1 ORDER BY seq`
	if err := sqlx.SelectContext(ctx, db, &user.RegisteredProjects, projectsQuery, user.ID); err != nil {
		return nil, fmt.Errorf("failed to get registered projects: %w", err)
	}

	submissionsQuery := `SELECT id FROM submissions WHERE submitted_by_user = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, db, &user.Submissions, submissionsQuery, user.ID); err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	const op = "repo.user.ListTeamMembers"

	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY team_joined_at, id`

	var members []models.User
	if err := sqlx.SelectContext(ctx, r.storage.Executor(ctx), &members, query, teamID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return members, nil
}

func (r *UserRepo) SetUserTeam(ctx context.Context, userID, teamID string, isLeader bool, joinedAt time.Time) error {
	const op = "repo.user.SetUserTeam"

	query := `UPDATE users SET team_id = $2, is_team_leader = $3, team_joined_at = $4 WHERE id = $1`

	err := r.updateUser(ctx, query, userID, teamID, isLeader, joinedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ClearUserTeam detaches the user from their team and forgets the project
// registrations they held through it.
func (r *UserRepo) ClearUserTeam(ctx context.Context, userID string) error {
	const op = "repo.user.ClearUserTeam"

	query := `UPDATE users SET team_id = NULL, is_team_leader = false, team_joined_at = NULL WHERE id = $1`

	if err := r.updateUser(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.storage.Executor(ctx).ExecContext(ctx, `DELETE FROM user_projects WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%s: failed to clear registered projects: %w", op, err)
	}

	return nil
}

func (r *UserRepo) SetTeamLeader(ctx context.Context, userID string, isLeader bool) error {
	const op = "repo.user.SetTeamLeader"

	query := `UPDATE users SET is_team_leader = $2 WHERE id = $1`

	err := r.updateUser(ctx, query, userID, isLeader)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrNotTeamMember)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *UserRepo) AddUserProjects(ctx context.Context, userID string, projectIDs ...string) error {
	const op = "repo.user.AddUserProjects"

	if len(projectIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO user_projects (user_id, project_id)
		SELECT $1, p.id
		FROM unnest($2::text[]) WITH ORDINALITY AS p(id, ord)
		ORDER BY p.ord
		ON CONFLICT DO NOTHING
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query, userID, pq.Array(projectIDs))
	if err != nil {
		if isForeignKeyError(err) {
			if violatedConstraint(err) == "user_projects_user_id_fkey" {
				return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
			}
			return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *UserRepo) AddUserPoints(ctx context.Context, userID string, delta int) error {
	const op = "repo.user.AddUserPoints"

	err := addPoints(ctx, r.storage.Executor(ctx), "users", userID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *UserRepo) updateUser(ctx context.Context, query string, userID string, args ...any) error {
	result, err := r.storage.Executor(ctx).ExecContext(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// addPoints applies delta to a balance unless the result would go negative.
// It returns sql.ErrNoRows when the row does not exist.
func addPoints(ctx context.Context, db sqlx.ExtContext, table, id string, delta int) error {
	query := fmt.Sprintf(`UPDATE %s SET points = points + $2 WHERE id = $1 AND points + $2 >= 0`, table)

	result, err := db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := sqlx.GetContext(ctx, db, &exists, existsQuery, id); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}

	return apperrors.ErrNegativeBalance
}
