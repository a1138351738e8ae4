package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	const op = "repo.memory.CreateProject"
	defer s.acquire(ctx)()

	if _, ok := s.st.projects[project.ID]; ok {
		return fmt.Errorf("%s: project %s already exists", op, project.ID)
	}
	stored := *project
	stored.Participants = slices.Clone(project.Participants)
	stored.Submissions = nil
	s.st.projects[project.ID] = stored
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	const op = "repo.memory.GetProject"
	defer s.acquire(ctx)()

	p, ok := s.st.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
	}
	return s.materializeProject(p), nil
}

func (s *Store) ListProjects(ctx context.Context, status *models.ProjectStatus) ([]models.Project, error) {
	defer s.acquire(ctx)()

	projects := make([]models.Project, 0, len(s.st.projects))
	for _, p := range s.st.projects {
		if status != nil && p.Status != *status {
			continue
		}
		projects = append(projects, *s.materializeProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].StartDate.Equal(projects[j].StartDate) {
			return projects[i].StartDate.Before(projects[j].StartDate)
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	const op = "repo.memory.UpdateProjectStatus"
	defer s.acquire(ctx)()

	p, ok := s.st.projects[projectID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
	}
	p.Status = status
	s.st.projects[projectID] = p
	return nil
}

func (s *Store) AddProjectParticipant(ctx context.Context, projectID string, participant models.Participant) error {
	const op = "repo.memory.AddProjectParticipant"
	defer s.acquire(ctx)()

	p, ok := s.st.projects[projectID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
	}
	if p.HasParticipant(participant) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyRegistered)
	}
	p.Participants = append(slices.Clone(p.Participants), participant)
	s.st.projects[projectID] = p
	return nil
}

func (s *Store) materializeProject(p models.Project) *models.Project {
	p.Participants = slices.Clone(p.Participants)
	p.Submissions = nil
	for _, sub := range s.sortedSubmissions() {
		if sub.ProjectID == p.ID {
			p.Submissions = append(p.Submissions, sub.ID)
		}
	}
	return &p
}
