package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

const DefaultInvitationTTL = 7 * 24 * time.Hour

// InvitationService manages direct invitations to a team. Accepting one goes
// through the same membership rules as joining by code.
type InvitationService struct {
	log         *slog.Logger
	tx          Transactor
	users       UserRepository
	teams       TeamRepository
	invitations InvitationRepository
	membership  *MembershipService
	ttl         time.Duration
	opts        options
}

func NewInvitationService(
	log *slog.Logger,
	tx Transactor,
	users UserRepository,
	teams TeamRepository,
	invitations InvitationRepository,
	membership *MembershipService,
	ttl time.Duration,
	opts ...Option,
) *InvitationService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		log:         log,
		tx:          tx,
		users:       users,
		teams:       teams,
		invitations: invitations,
		membership:  membership,
		ttl:         ttl,
		opts:        buildOptions(opts),
	}
}

func (s *InvitationService) Invite(ctx context.Context, actorID, teamID, emailOrUsername string) (*models.TeamInvitation, error) {
	const op = "service.invitation.Invite"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
		slog.String("target", emailOrUsername),
	)

	log.Info("attempting to invite user")

	target, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(emailOrUsername))
	if err != nil {
		log.Warn("target user not found", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var invitation *models.TeamInvitation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID), userKey(target.ID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := s.membership.authorizeLeader(ctx, actorID, team); err != nil {
			return err
		}
		if team.HasMember(target.ID) {
			return apperrors.ErrAlreadyMember
		}
		if team.IsFull() {
			return apperrors.ErrTeamFull
		}

		invitee, err := s.users.GetUser(ctx, target.ID)
		if err != nil {
			return err
		}
		if err := s.membership.ensureUnaffiliated(ctx, invitee); err != nil {
			return err
		}

		now := s.opts.clock()
		if err := s.replaceExpired(ctx, teamID, target.ID, now); err != nil {
			return err
		}

		invitation = &models.TeamInvitation{
			ID:          s.opts.newID(),
			TeamID:      teamID,
			InvitedUser: target.ID,
			InvitedBy:   actorID,
			Status:      models.InvitationPending,
			ExpiresAt:   now.Add(s.ttl),
			CreatedAt:   now,
		}
		return s.invitations.CreateInvitation(ctx, invitation)
	})
	if err != nil {
		log.Error("failed to invite user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("invitation created", slog.String("invitation_id", invitation.ID))

	return invitation, nil
}

// replaceExpired cancels a pending but expired invitation for the same pair so
// a new one can be issued. A live one is a conflict.
func (s *InvitationService) replaceExpired(ctx context.Context, teamID, userID string, now time.Time) error {
	existing, err := s.invitations.FindPendingInvitation(ctx, teamID, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil
		}
		return err
	}
	if !existing.ExpiredAt(now) {
		return apperrors.ErrInvitationExists
	}
	return s.invitations.SetInvitationStatus(ctx, existing.ID, models.InvitationCancelled, now)
}

// Accept joins the invited user to the team and cancels every other pending
// invitation addressed to them.
func (s *InvitationService) Accept(ctx context.Context, userID, invitationID string) (*models.Team, error) {
	const op = "service.invitation.Accept"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("invitation_id", invitationID),
	)

	log.Info("attempting to accept invitation")

	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cancelled int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(inv.TeamID), userKey(userID)); err != nil {
			return err
		}

		inv, err := s.pendingFor(ctx, userID, invitationID)
		if err != nil {
			return err
		}
		now := s.opts.clock()
		if inv.ExpiredAt(now) {
			return apperrors.ErrInvitationExpired
		}

		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.membership.ensureUnaffiliated(ctx, user); err != nil {
			return err
		}
		if err := s.membership.addMember(ctx, inv.TeamID, userID); err != nil {
			return err
		}

		if err := s.invitations.SetInvitationStatus(ctx, inv.ID, models.InvitationAccepted, now); err != nil {
			return err
		}
		cancelled, err = s.invitations.CancelUserInvitations(ctx, userID, inv.ID, now)
		return err
	})
	if err != nil {
		log.Error("failed to accept invitation", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("invitation accepted",
		slog.String("team_id", inv.TeamID),
		slog.Int("cancelled_invitations", cancelled))

	team, err := s.teams.GetTeam(ctx, inv.TeamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return team, nil
}

func (s *InvitationService) Reject(ctx context.Context, userID, invitationID string) (*models.TeamInvitation, error) {
	const op = "service.invitation.Reject"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("invitation_id", invitationID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.pendingFor(ctx, userID, invitationID); err != nil {
			return err
		}
		return s.invitations.SetInvitationStatus(ctx, invitationID, models.InvitationRejected, s.opts.clock())
	})
	if err != nil {
		log.Error("failed to reject invitation", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("invitation rejected")

	return s.get(ctx, op, invitationID)
}

// Cancel withdraws a pending invitation. The inviter, any leader of the team
// and admins may cancel.
func (s *InvitationService) Cancel(ctx context.Context, actorID, invitationID string) (*models.TeamInvitation, error) {
	const op = "service.invitation.Cancel"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("invitation_id", invitationID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invitations.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if inv.InvitedBy != actorID {
			team, err := s.teams.GetTeam(ctx, inv.TeamID)
			if err != nil {
				return err
			}
			if err := s.membership.authorizeLeader(ctx, actorID, team); err != nil {
				return apperrors.ErrCannotCancel
			}
		}
		if inv.Status != models.InvitationPending {
			return apperrors.ErrInvitationNotPending
		}
		return s.invitations.SetInvitationStatus(ctx, invitationID, models.InvitationCancelled, s.opts.clock())
	})
	if err != nil {
		log.Error("failed to cancel invitation", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("invitation cancelled")

	return s.get(ctx, op, invitationID)
}

func (s *InvitationService) ListForUser(ctx context.Context, userID string) ([]models.TeamInvitation, error) {
	const op = "service.invitation.ListForUser"

	invitations, err := s.invitations.ListPendingInvitations(ctx, userID)
	if err != nil {
		s.log.Error("failed to list invitations", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invitations, nil
}

func (s *InvitationService) pendingFor(ctx context.Context, userID, invitationID string) (*models.TeamInvitation, error) {
	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUser != userID {
		return nil, apperrors.ErrNotInvitee
	}
	if inv.Status != models.InvitationPending {
		return nil, apperrors.ErrInvitationNotPending
	}
	return inv, nil
}

func (s *InvitationService) get(ctx context.Context, op, invitationID string) (*models.TeamInvitation, error) {
	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}
