package service

import (
	"context"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func requireAdmin(ctx context.Context, users UserRepository, actorID string) (*models.User, error) {
	actor, err := users.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminRequired
	}
	return actor, nil
}
