package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

type RegistrationService struct {
	log      *slog.Logger
	tx       Transactor
	users    UserRepository
	teams    TeamRepository
	projects ProjectRepository
	opts     options
}

func NewRegistrationService(
	log *slog.Logger,
	tx Transactor,
	users UserRepository,
	teams TeamRepository,
	projects ProjectRepository,
	opts ...Option,
) *RegistrationService {
	return &RegistrationService{
		log:      log,
		tx:       tx,
		users:    users,
		teams:    teams,
		projects: projects,
		opts:     buildOptions(opts),
	}
}

// RegisterToProject registers the user, or the user's team for team projects.
// A person is in a project through at most one path: a direct registration of
// their own or the registration of their team.
func (s *RegistrationService) RegisterToProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	const op = "service.registration.RegisterToProject"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("project_id", projectID),
	)

	log.Info("attempting to register for project")

	// healed is set when the user's team reference turned out to be stale. The
	// cleared reference is committed and the registration reported as NotFound.
	var healed bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, projectKey(projectID)); err != nil {
			return err
		}

		project, err := s.projects.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := checkAccepting(project, s.opts.clock()); err != nil {
			return err
		}

		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		if project.Type == models.ProjectTeam {
			healed, err = s.registerTeam(ctx, user, project)
			return err
		}
		return s.registerUser(ctx, user, project)
	})
	if err != nil {
		log.Error("failed to register for project", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if healed {
		log.Warn("registration refused, stale team reference cleared")
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrStaleTeamReference)
	}

	log.Info("registered for project")

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return project, nil
}

func (s *RegistrationService) registerUser(ctx context.Context, user *models.User, project *models.Project) error {
	self := models.UserParticipant(user.ID)
	if project.HasParticipant(self) || user.IsRegisteredFor(project.ID) {
		return apperrors.ErrAlreadyRegistered
	}

	if user.HasTeam() {
		team, err := s.teams.GetTeam(ctx, *user.TeamID)
		switch {
		case errors.Is(err, apperrors.ErrTeamNotFound):
			// A dangling team reference has no teammates to check.
		case err != nil:
			return err
		default:
			for _, memberID := range team.Members {
				if memberID == user.ID {
					continue
				}
				if project.HasParticipant(models.UserParticipant(memberID)) {
					return apperrors.ErrTeammateRegistered
				}
			}
		}
	}

	if err := s.projects.AddProjectParticipant(ctx, project.ID, self); err != nil {
		return err
	}
	return s.users.AddUserProjects(ctx, user.ID, project.ID)
}

func (s *RegistrationService) registerTeam(ctx context.Context, user *models.User, project *models.Project) (bool, error) {
	if !user.HasTeam() {
		return false, apperrors.ErrTeamRequired
	}

	teamID := *user.TeamID
	if err := s.tx.Lock(ctx, teamKey(teamID)); err != nil {
		return false, err
	}

	team, err := s.teams.GetTeam(ctx, teamID)
	if errors.Is(err, apperrors.ErrTeamNotFound) {
		s.log.Warn("clearing stale team reference",
			slog.String("user_id", user.ID),
			slog.String("team_id", teamID))
		return true, s.users.ClearUserTeam(ctx, user.ID)
	}
	if err != nil {
		return false, err
	}

	if project.HasParticipant(models.TeamParticipant(team.ID)) || team.IsRegisteredFor(project.ID) {
		return false, apperrors.ErrAlreadyRegistered
	}
	if !team.IsLeader(user.ID) {
		return false, apperrors.ErrLeaderRequired
	}
	if len(team.Members) < team.MinMembers {
		return false, apperrors.ErrTeamTooSmall
	}

	for _, memberID := range team.Members {
		member, err := s.users.GetUser(ctx, memberID)
		if err != nil {
			return false, err
		}
		if project.HasParticipant(models.UserParticipant(memberID)) || member.IsRegisteredFor(project.ID) {
			return false, apperrors.ErrMemberRegisteredIndividually
		}
	}

	if err := s.projects.AddProjectParticipant(ctx, project.ID, models.TeamParticipant(team.ID)); err != nil {
		return false, err
	}
	if err := s.teams.AddTeamProject(ctx, team.ID, project.ID); err != nil {
		return false, err
	}
	for _, memberID := range team.Members {
		if err := s.users.AddUserProjects(ctx, memberID, project.ID); err != nil {
			return false, err
		}
	}
	return false, nil
}
