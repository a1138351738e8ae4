package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/invitecode"
	"competition-ledger/internal/lib/logger/sl"
)

const (
	maxLeaders        = 2
	maxCodeAttempts   = 10
	defaultMinMembers = 2
	defaultMaxMembers = 5
)

type TeamLimits struct {
	MinMembers int
	MaxMembers int
}

type MembershipService struct {
	log         *slog.Logger
	tx          Transactor
	users       UserRepository
	teams       TeamRepository
	projects    ProjectRepository
	invitations InvitationRepository
	cache       LeaderboardCache
	limits      TeamLimits
	opts        options
}

func NewMembershipService(
	log *slog.Logger,
	tx Transactor,
	users UserRepository,
	teams TeamRepository,
	projects ProjectRepository,
	invitations InvitationRepository,
	cache LeaderboardCache,
	limits TeamLimits,
	opts ...Option,
) *MembershipService {
	if limits.MinMembers <= 0 {
		limits.MinMembers = defaultMinMembers
	}
	if limits.MaxMembers <= 0 {
		limits.MaxMembers = defaultMaxMembers
	}
	return &MembershipService{
		log:         log,
		tx:          tx,
		users:       users,
		teams:       teams,
		projects:    projects,
		invitations: invitations,
		cache:       cache,
		limits:      limits,
		opts:        buildOptions(opts),
	}
}

type CreateTeamInput struct {
	Name        string
	Description string
	Slogan      string
}

func (s *MembershipService) CreateTeam(ctx context.Context, creatorID string, in CreateTeamInput) (*models.Team, error) {
	const op = "service.membership.CreateTeam"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", creatorID),
		slog.String("team_name", in.Name),
	)

	log.Info("attempting to create team")

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrTeamNameRequired)
	}

	var teamID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, userKey(creatorID)); err != nil {
			return err
		}

		creator, err := s.users.GetUser(ctx, creatorID)
		if err != nil {
			return err
		}
		if err := s.ensureUnaffiliated(ctx, creator); err != nil {
			return err
		}

		taken, err := s.teams.TeamNameExists(ctx, name)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrTeamNameTaken
		}

		code, err := s.uniqueInvitationCode(ctx)
		if err != nil {
			return err
		}

		now := s.opts.clock()
		team := &models.Team{
			ID:             s.opts.newID(),
			Name:           name,
			Description:    strings.TrimSpace(in.Description),
			Slogan:         strings.TrimSpace(in.Slogan),
			InvitationCode: code,
			MinMembers:     s.limits.MinMembers,
			MaxMembers:     s.limits.MaxMembers,
			CreatedAt:      now,
		}
		if err := s.teams.CreateTeam(ctx, team); err != nil {
			return err
		}
		if err := s.users.SetUserTeam(ctx, creatorID, team.ID, true, now); err != nil {
			return err
		}
		teamID = team.ID
		return nil
	})
	if err != nil {
		log.Error("failed to create team", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("team created successfully", slog.String("team_id", teamID))

	return s.getTeam(ctx, op, teamID)
}

func (s *MembershipService) JoinByCode(ctx context.Context, userID, code string) (*models.Team, error) {
	const op = "service.membership.JoinByCode"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
	)

	log.Info("attempting to join team by invitation code")

	team, err := s.teams.GetTeamByInvitationCode(ctx, invitecode.Normalize(code))
	if err != nil {
		if errors.Is(err, apperrors.ErrTeamNotFound) {
			err = apperrors.ErrInvalidInvitationCode
		}
		log.Warn("invitation code lookup failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(team.ID), userKey(userID)); err != nil {
			return err
		}

		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.ensureUnaffiliated(ctx, user); err != nil {
			return err
		}

		return s.addMember(ctx, team.ID, userID)
	})
	if err != nil {
		log.Error("failed to join team", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user joined team", slog.String("team_id", team.ID))

	return s.getTeam(ctx, op, team.ID)
}

func (s *MembershipService) AddMember(ctx context.Context, actorID, teamID, emailOrUsername string) (*models.Team, error) {
	const op = "service.membership.AddMember"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
		slog.String("target", emailOrUsername),
	)

	log.Info("attempting to add team member")

	target, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(emailOrUsername))
	if err != nil {
		log.Warn("target user not found", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID), userKey(target.ID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := s.authorizeLeader(ctx, actorID, team); err != nil {
			return err
		}

		member, err := s.users.GetUser(ctx, target.ID)
		if err != nil {
			return err
		}
		if team.HasMember(member.ID) {
			return apperrors.ErrAlreadyMember
		}
		if err := s.ensureUnaffiliated(ctx, member); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyInTeam) {
				return apperrors.ErrMemberOfOtherTeam
			}
			return err
		}

		return s.addMember(ctx, teamID, member.ID)
	})
	if err != nil {
		log.Error("failed to add member", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("member added", slog.String("user_id", target.ID))

	return s.getTeam(ctx, op, teamID)
}

func (s *MembershipService) RemoveMember(ctx context.Context, actorID, teamID, targetID string) (*models.Team, error) {
	const op = "service.membership.RemoveMember"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
		slog.String("target_id", targetID),
	)

	log.Info("attempting to remove team member")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID), userKey(targetID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := s.authorizeLeader(ctx, actorID, team); err != nil {
			return err
		}
		target, err := s.users.GetUser(ctx, targetID)
		if err != nil {
			return err
		}
		if !team.HasMember(targetID) && target.HasTeam() {
			_, err := s.teams.GetTeam(ctx, *target.TeamID)
			switch {
			case err == nil:
				return apperrors.ErrNotTeamMember
			case !errors.Is(err, apperrors.ErrTeamNotFound):
				return err
			}
		}
		if team.IsLeader(targetID) && len(team.Leaders) == 1 {
			return apperrors.ErrSoleLeader
		}

		// A target whose team reference was missing or stale ends up
		// unaffiliated as well.
		return s.users.ClearUserTeam(ctx, targetID)
	})
	if err != nil {
		log.Error("failed to remove member", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("member removed")

	return s.getTeam(ctx, op, teamID)
}

func (s *MembershipService) LeaveTeam(ctx context.Context, userID, teamID string) (*models.User, error) {
	const op = "service.membership.LeaveTeam"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("team_id", teamID),
	)

	log.Info("attempting to leave team")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID), userKey(userID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.HasMember(userID) {
			return apperrors.ErrNotTeamMember
		}
		if team.IsLeader(userID) && len(team.Leaders) == 1 {
			return apperrors.ErrSoleLeader
		}

		return s.users.ClearUserTeam(ctx, userID)
	})
	if err != nil {
		log.Error("failed to leave team", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user left team")

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *MembershipService) GiveLeadership(ctx context.Context, actorID, teamID, targetID string) (*models.Team, error) {
	const op = "service.membership.GiveLeadership"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
		slog.String("target_id", targetID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.IsLeader(actorID) {
			return apperrors.ErrLeaderRequired
		}
		if !team.HasMember(targetID) {
			return apperrors.ErrNotTeamMember
		}
		if team.IsLeader(targetID) {
			return apperrors.ErrAlreadyLeader
		}
		if len(team.Leaders) >= maxLeaders {
			return apperrors.ErrLeaderLimit
		}

		return s.users.SetTeamLeader(ctx, targetID, true)
	})
	if err != nil {
		log.Error("failed to give leadership", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("leadership granted")

	return s.getTeam(ctx, op, teamID)
}

func (s *MembershipService) RemoveLeadership(ctx context.Context, actorID, teamID, targetID string) (*models.Team, error) {
	const op = "service.membership.RemoveLeadership"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
		slog.String("target_id", targetID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.IsLeader(actorID) {
			return apperrors.ErrLeaderRequired
		}
		if !team.HasMember(targetID) {
			return apperrors.ErrNotTeamMember
		}
		if !team.IsLeader(targetID) {
			return apperrors.ErrNotLeader
		}
		if len(team.Leaders) <= 1 {
			return apperrors.ErrSoleLeader
		}

		return s.users.SetTeamLeader(ctx, targetID, false)
	})
	if err != nil {
		log.Error("failed to remove leadership", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("leadership removed")

	return s.getTeam(ctx, op, teamID)
}

func (s *MembershipService) DeleteTeam(ctx context.Context, actorID, teamID string) error {
	const op = "service.membership.DeleteTeam"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("team_id", teamID),
	)

	log.Info("attempting to delete team")

	var cleared int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, teamKey(teamID)); err != nil {
			return err
		}

		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := s.authorizeLeader(ctx, actorID, team); err != nil {
			return err
		}

		for _, memberID := range team.Members {
			if err := s.users.ClearUserTeam(ctx, memberID); err != nil {
				return err
			}
			cleared++
		}
		if _, err := s.invitations.CancelTeamInvitations(ctx, teamID, s.opts.clock()); err != nil {
			return err
		}

		return s.teams.DeleteTeam(ctx, teamID)
	})
	if err != nil {
		log.Error("failed to delete team", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("team deleted", slog.Int("cleared_members", cleared))

	if s.cache != nil {
		if err := s.cache.Remove(ctx, models.TeamParticipant(teamID)); err != nil {
			log.Warn("failed to evict team from leaderboard cache", sl.Err(err))
		}
	}

	return nil
}

func (s *MembershipService) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const op = "service.membership.GetTeam"
	return s.getTeam(ctx, op, teamID)
}

// GetMyTeam returns the caller's team, clearing a reference to a team that no
// longer exists.
func (s *MembershipService) GetMyTeam(ctx context.Context, userID string) (*models.Team, error) {
	const op = "service.membership.GetMyTeam"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.HasTeam() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}

	team, err := s.teams.GetTeam(ctx, *user.TeamID)
	if errors.Is(err, apperrors.ErrTeamNotFound) {
		if healErr := s.healStaleTeam(ctx, user); healErr != nil {
			return nil, fmt.Errorf("%s: %w", op, healErr)
		}
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrStaleTeamReference)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return team, nil
}

// addMember links the user to the team and unions the team's projects into
// the user's registrations.
func (s *MembershipService) addMember(ctx context.Context, teamID, userID string) error {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.HasMember(userID) {
		return apperrors.ErrAlreadyMember
	}
	if team.IsFull() {
		return apperrors.ErrTeamFull
	}
	if err := s.checkExclusivity(ctx, team, userID); err != nil {
		return err
	}

	if err := s.users.SetUserTeam(ctx, userID, teamID, false, s.opts.clock()); err != nil {
		return err
	}
	if len(team.RegisteredProjects) > 0 {
		if err := s.users.AddUserProjects(ctx, userID, team.RegisteredProjects...); err != nil {
			return err
		}
	}
	return nil
}

// checkExclusivity rejects a newcomer who holds an individual registration
// for a project a member of the team is also individually registered for.
func (s *MembershipService) checkExclusivity(ctx context.Context, team *models.Team, userID string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	newcomer := models.UserParticipant(userID)
	for _, projectID := range user.RegisteredProjects {
		project, err := s.projects.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.HasParticipant(newcomer) {
			continue
		}
		for _, memberID := range team.Members {
			if memberID != userID && project.HasParticipant(models.UserParticipant(memberID)) {
				return apperrors.ErrTeammateRegistered
			}
		}
	}
	return nil
}

// ensureUnaffiliated fails when the user is on a team that still exists. A
// reference to a deleted team is cleared instead.
func (s *MembershipService) ensureUnaffiliated(ctx context.Context, user *models.User) error {
	if !user.HasTeam() {
		return nil
	}
	_, err := s.teams.GetTeam(ctx, *user.TeamID)
	switch {
	case err == nil:
		return apperrors.ErrAlreadyInTeam
	case errors.Is(err, apperrors.ErrTeamNotFound):
		return s.healStaleTeam(ctx, user)
	default:
		return err
	}
}

func (s *MembershipService) healStaleTeam(ctx context.Context, user *models.User) error {
	s.log.Warn("clearing stale team reference",
		slog.String("user_id", user.ID),
		slog.String("team_id", *user.TeamID))
	if err := s.users.ClearUserTeam(ctx, user.ID); err != nil {
		return err
	}
	user.TeamID = nil
	user.IsTeamLeader = false
	user.RegisteredProjects = nil
	return nil
}

func (s *MembershipService) authorizeLeader(ctx context.Context, actorID string, team *models.Team) error {
	if team.IsLeader(actorID) {
		return nil
	}
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	return apperrors.ErrLeaderRequired
}

func (s *MembershipService) uniqueInvitationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.opts.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.teams.InvitationCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free invitation code after %d attempts", maxCodeAttempts)
}

func (s *MembershipService) getTeam(ctx context.Context, op, teamID string) (*models.Team, error) {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return team, nil
}
