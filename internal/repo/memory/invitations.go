package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func (s *Store) CreateInvitation(ctx context.Context, invitation *models.TeamInvitation) error {
	const op = "repo.memory.CreateInvitation"
	defer s.acquire(ctx)()

	if _, ok := s.st.teams[invitation.TeamID]; !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}
	for _, inv := range s.st.invitations {
		if inv.Status == models.InvitationPending && inv.TeamID == invitation.TeamID && inv.InvitedUser == invitation.InvitedUser {
			return fmt.Errorf("%s: %w", op, apperrors.ErrInvitationExists)
		}
	}
	s.st.invitations[invitation.ID] = *invitation
	return nil
}

func (s *Store) GetInvitation(ctx context.Context, invitationID string) (*models.TeamInvitation, error) {
	const op = "repo.memory.GetInvitation"
	defer s.acquire(ctx)()

	inv, ok := s.st.invitations[invitationID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvitationNotFound)
	}
	return &inv, nil
}

func (s *Store) FindPendingInvitation(ctx context.Context, teamID, userID string) (*models.TeamInvitation, error) {
	const op = "repo.memory.FindPendingInvitation"
	defer s.acquire(ctx)()

	for _, inv := range s.st.invitations {
		if inv.Status == models.InvitationPending && inv.TeamID == teamID && inv.InvitedUser == userID {
			return &inv, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvitationNotFound)
}

func (s *Store) ListPendingInvitations(ctx context.Context, userID string) ([]models.TeamInvitation, error) {
	defer s.acquire(ctx)()

	var pending []models.TeamInvitation
	for _, inv := range s.st.invitations {
		if inv.Status == models.InvitationPending && inv.InvitedUser == userID {
			pending = append(pending, inv)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

func (s *Store) SetInvitationStatus(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error {
	const op = "repo.memory.SetInvitationStatus"
	defer s.acquire(ctx)()

	inv, ok := s.st.invitations[invitationID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrInvitationNotFound)
	}
	inv.Status = status
	inv.RespondedAt = ptr(at)
	s.st.invitations[invitationID] = inv
	return nil
}

func (s *Store) CancelUserInvitations(ctx context.Context, userID, exceptID string, at time.Time) (int, error) {
	defer s.acquire(ctx)()

	return s.cancelWhere(at, func(inv models.TeamInvitation) bool {
		return inv.InvitedUser == userID && inv.ID != exceptID
	}), nil
}

func (s *Store) CancelTeamInvitations(ctx context.Context, teamID string, at time.Time) (int, error) {
	defer s.acquire(ctx)()

	return s.cancelWhere(at, func(inv models.TeamInvitation) bool {
		return inv.TeamID == teamID
	}), nil
}

func (s *Store) cancelWhere(at time.Time, match func(models.TeamInvitation) bool) int {
	cancelled := 0
	for id, inv := range s.st.invitations {
		if inv.Status != models.InvitationPending || !match(inv) {
			continue
		}
		inv.Status = models.InvitationCancelled
		inv.RespondedAt = ptr(at)
		s.st.invitations[id] = inv
		cancelled++
	}
	return cancelled
}
