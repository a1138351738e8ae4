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

type ProjectService struct {
	log      *slog.Logger
	users    UserRepository
	projects ProjectRepository
	opts     options
}

func NewProjectService(log *slog.Logger, users UserRepository, projects ProjectRepository, opts ...Option) *ProjectService {
	return &ProjectService{
		log:      log,
		users:    users,
		projects: projects,
		opts:     buildOptions(opts),
	}
}

type CreateProjectInput struct {
	Title       string
	Description string
	Type        models.ProjectType
	Status      models.ProjectStatus
	StartDate   time.Time
	EndDate     time.Time
	Rewards     models.Rewards
}

func (s *ProjectService) CreateProject(ctx context.Context, adminID string, in CreateProjectInput) (*models.Project, error) {
	const op = "service.project.CreateProject"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("title", in.Title),
	)

	log.Info("attempting to create project")

	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Status == "" {
		in.Status = models.ProjectDraft
	}
	if err := validateProject(in); err != nil {
		log.Warn("invalid project", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	project := &models.Project{
		ID:          s.opts.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Status:      in.Status,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Rewards:     in.Rewards,
		CreatedBy:   &adminID,
		CreatedAt:   s.opts.clock(),
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		log.Error("failed to create project", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("project created", slog.String("project_id", project.ID))

	return s.getProject(ctx, op, project.ID)
}

func validateProject(in CreateProjectInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.ErrProjectTitleRequired
	}
	if !in.Type.Valid() {
		return apperrors.ErrInvalidProjectType
	}
	if !in.Status.Valid() {
		return apperrors.ErrInvalidProjectStatus
	}
	if !in.StartDate.Before(in.EndDate) {
		return apperrors.ErrInvalidProjectDates
	}
	if !in.Rewards.Valid() {
		return apperrors.ErrInvalidRewards
	}
	return nil
}

func (s *ProjectService) UpdateProjectStatus(ctx context.Context, adminID, projectID string, status models.ProjectStatus) (*models.Project, error) {
	const op = "service.project.UpdateProjectStatus"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("project_id", projectID),
		slog.String("status", string(status)),
	)

	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidProjectStatus)
	}

	if err := s.projects.UpdateProjectStatus(ctx, projectID, status); err != nil {
		log.Error("failed to update project status", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("project status updated")

	return s.getProject(ctx, op, projectID)
}

func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	const op = "service.project.GetProject"
	return s.getProject(ctx, op, projectID)
}

// ListProjects returns all projects, or only those in status when it is set.
func (s *ProjectService) ListProjects(ctx context.Context, status *models.ProjectStatus) ([]models.Project, error) {
	const op = "service.project.ListProjects"

	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidProjectStatus)
	}

	projects, err := s.projects.ListProjects(ctx, status)
	if err != nil {
		s.log.Error("failed to list projects", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return projects, nil
}

func (s *ProjectService) getProject(ctx context.Context, op, projectID string) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return project, nil
}
