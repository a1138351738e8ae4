package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/storage/postgresql"
)

const invitationColumns = `id, team_id, invited_user, invited_by, status, expires_at, created_at, responded_at`

type InvitationRepo struct {
	storage postgresql.Conn
}

func NewInvitationRepo(storage postgresql.Conn) *InvitationRepo {
	return &InvitationRepo{storage: storage}
}

func (r *InvitationRepo) CreateInvitation(ctx context.Context, invitation *models.TeamInvitation) error {
	const op = "repo.invitation.CreateInvitation"

	query := `
		INSERT INTO team_invitations (id, team_id, invited_user, invited_by, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.storage.Executor(ctx).ExecContext(ctx, query,
		invitation.ID, invitation.TeamID, invitation.InvitedUser, invitation.InvitedBy,
		invitation.Status, invitation.ExpiresAt, invitation.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrInvitationExists)
		}
		if isForeignKeyError(err) {
			if violatedConstraint(err) == "team_invitations_team_id_fkey" {
				return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
			}
			return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *InvitationRepo) GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error) {
	const op = "repo.invitation.GetInvitation"

	query := `SELECT ` + invitationColumns + ` FROM team_invitations WHERE id = $1`

	invitation, err := r.get(ctx, query, invitationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return invitation, nil
}

func (r *InvitationRepo) FindPendingInvitation(ctx context.Context, teamID, userID string) (*models.TeamInvitation, error) {
	const op = "repo.invitation.FindPendingInvitation"

	query := `
		SELECT ` + invitationColumns + `
		FROM team_invitations
		WHERE team_id = $1 AND invited_user = $2 AND status = 'pending'
	`

	invitation, err := r.get(ctx, query, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return invitation, nil
}

func (r *InvitationRepo) get(ctx context.Context, query string, args ...any) (*models.TeamInvitation, error) {
	var invitation models.TeamInvitation
	if err := sqlx.GetContext(ctx, r.storage.Executor(ctx), &invitation, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrInvitationNotFound
		}
		return nil, err
	}

	return &invitation, nil
}

func (r *InvitationRepo) ListPendingInvitations(ctx context.Context, userID string) ([]models.TeamInvitation, error) {
	const op = "repo.invitation.ListPendingInvitations"

	query := `
		SELECT ` + invitationColumns + `
		FROM team_invitations
		WHERE invited_user = $1 AND status = 'pending'
		ORDER BY created_at, id
	`

	var invitations []models.TeamInvitation
	if err := sqlx.SelectContext(ctx, r.storage.Executor(ctx), &invitations, query, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return invitations, nil
}

func (r *InvitationRepo) SetInvitationStatus(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error {
	const op = "repo.invitation.SetInvitationStatus"

	query := `UPDATE team_invitations SET status = $2, responded_at = $3 WHERE id = $1`

	result, err := r.storage.Executor(ctx).ExecContext(ctx, query, invitationID, status, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrInvitationNotFound)
	}

	return nil
}

func (r *InvitationRepo) CancelUserInvitations(ctx context.Context, userID, exceptID string, at time.Time) (int, error) {
	const op = "repo.invitation.CancelUserInvitations"

	query := `
		UPDATE team_invitations
		SET status = 'cancelled', responded_at = $3
		WHERE invited_user = $1 AND id <> $2 AND status = 'pending'
	`

	cancelled, err := r.cancel(ctx, query, userID, exceptID, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cancelled, nil
}

func (r *InvitationRepo) CancelTeamInvitations(ctx context.Context, teamID string, at time.Time) (int, error) {
	const op = "repo.invitation.CancelTeamInvitations"

	query := `
		UPDATE team_invitations
		SET status = 'cancelled', responded_at = $2
		WHERE team_id = $1 AND status = 'pending'
	`

	cancelled, err := r.cancel(ctx, query, teamID, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cancelled, nil
}

func (r *InvitationRepo) cancel(ctx context.Context, query string, args ...any) (int, error) {
	result, err := r.storage.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}
