package memory

import (
	"context"
	"fmt"
	"slices"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func (s *Store) CreateTeam(ctx context.Context, team *models.Team) error {
	const op = "repo.memory.CreateTeam"
	defer s.acquire(ctx)()

	for _, t := range s.st.teams {
		if t.ID == team.ID || t.Name == team.Name {
			return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNameTaken)
		}
		if t.InvitationCode == team.InvitationCode {
			return fmt.Errorf("%s: invitation code already in use", op)
		}
	}

	stored := *team
	stored.Members, stored.Leaders, stored.Submissions = nil, nil, nil
	stored.RegisteredProjects = slices.Clone(team.RegisteredProjects)
	s.st.teams[team.ID] = stored
	return nil
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const op = "repo.memory.GetTeam"
	defer s.acquire(ctx)()

	t, ok := s.st.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}
	return s.materializeTeam(t), nil
}

func (s *Store) GetTeamByInvitationCode(ctx context.Context, code string) (*models.Team, error) {
	const op = "repo.memory.GetTeamByInvitationCode"
	defer s.acquire(ctx)()

	for _, t := range s.st.teams {
		if t.InvitationCode == code {
			return s.materializeTeam(t), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
}

func (s *Store) TeamNameExists(ctx context.Context, name string) (bool, error) {
	defer s.acquire(ctx)()

	for _, t := range s.st.teams {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InvitationCodeExists(ctx context.Context, code string) (bool, error) {
	defer s.acquire(ctx)()

	for _, t := range s.st.teams {
		if t.InvitationCode == code {
			return true, nil
		}
	}
	return false, nil
}

// DeleteTeam removes the team and everything that references it, the way the
// foreign keys of the SQL schema do.
func (s *Store) DeleteTeam(ctx context.Context, teamID string) error {
	const op = "repo.memory.DeleteTeam"
	defer s.acquire(ctx)()

	if _, ok := s.st.teams[teamID]; !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}
	delete(s.st.teams, teamID)

	for id, u := range s.st.users {
		if u.InTeam(teamID) {
			u.TeamID, u.IsTeamLeader, u.TeamJoinedAt = nil, false, nil
			s.st.users[id] = u
		}
	}

	gone := models.TeamParticipant(teamID)
	for id, p := range s.st.projects {
		if p.HasParticipant(gone) {
			p.Participants = slices.DeleteFunc(slices.Clone(p.Participants), func(part models.Participant) bool {
				return part == gone
			})
			s.st.projects[id] = p
		}
	}
	for id, sub := range s.st.submissions {
		if sub.SubmittedByTeam != nil && *sub.SubmittedByTeam == teamID {
			delete(s.st.submissions, id)
		}
	}
	for id, inv := range s.st.invitations {
		if inv.TeamID == teamID {
			delete(s.st.invitations, id)
		}
	}
	return nil
}

func (s *Store) AddTeamProject(ctx context.Context, teamID, projectID string) error {
	return s.updateTeam(ctx, "repo.memory.AddTeamProject", teamID, func(t *models.Team) error {
		if !slices.Contains(t.RegisteredProjects, projectID) {
			t.RegisteredProjects = append(t.RegisteredProjects, projectID)
		}
		return nil
	})
}

func (s *Store) AddTeamPoints(ctx context.Context, teamID string, delta int) error {
	return s.updateTeam(ctx, "repo.memory.AddTeamPoints", teamID, func(t *models.Team) error {
		if t.Points+delta < 0 {
			return apperrors.ErrNegativeBalance
		}
		t.Points += delta
		return nil
	})
}

func (s *Store) updateTeam(ctx context.Context, op, teamID string, mutate func(t *models.Team) error) error {
	defer s.acquire(ctx)()

	t, ok := s.st.teams[teamID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrTeamNotFound)
	}
	t.RegisteredProjects = slices.Clone(t.RegisteredProjects)
	if err := mutate(&t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.st.teams[teamID] = t
	return nil
}

func (s *Store) materializeTeam(t models.Team) *models.Team {
	t.RegisteredProjects = slices.Clone(t.RegisteredProjects)
	t.Members, t.Leaders, t.Submissions = nil, nil, nil
	for _, u := range s.teamMembers(t.ID) {
		t.Members = append(t.Members, u.ID)
		if u.IsTeamLeader {
			t.Leaders = append(t.Leaders, u.ID)
		}
	}
	for _, sub := range s.sortedSubmissions() {
		if sub.SubmittedByTeam != nil && *sub.SubmittedByTeam == t.ID {
			t.Submissions = append(t.Submissions, sub.ID)
		}
	}
	return &t
}
