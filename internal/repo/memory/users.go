package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	const op = "repo.memory.CreateUser"
	defer s.acquire(ctx)()

	for _, u := range s.st.users {
		if u.ID == user.ID || strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrUserExists)
		}
	}

	stored := *user
	stored.RegisteredProjects = slices.Clone(user.RegisteredProjects)
	stored.Submissions = nil
	s.st.users[user.ID] = stored
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "repo.memory.GetUser"
	defer s.acquire(ctx)()

	u, ok := s.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
	}
	return s.materializeUser(u), nil
}

func (s *Store) GetUserByLogin(ctx context.Context, emailOrUsername string) (*models.User, error) {
	const op = "repo.memory.GetUserByLogin"
	defer s.acquire(ctx)()

	for _, u := range s.st.users {
		if strings.EqualFold(u.Email, emailOrUsername) || strings.EqualFold(u.Username, emailOrUsername) {
			return s.materializeUser(u), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
}

func (s *Store) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	defer s.acquire(ctx)()

	return s.teamMembers(teamID), nil
}

func (s *Store) SetUserTeam(ctx context.Context, userID, teamID string, isLeader bool, joinedAt time.Time) error {
	return s.updateUser(ctx, "repo.memory.SetUserTeam", userID, func(u *models.User) error {
		if _, ok := s.st.teams[teamID]; !ok {
			return apperrors.ErrTeamNotFound
		}
		u.TeamID = ptr(teamID)
		u.IsTeamLeader = isLeader
		u.TeamJoinedAt = ptr(joinedAt)
		return nil
	})
}

func (s *Store) ClearUserTeam(ctx context.Context, userID string) error {
	return s.updateUser(ctx, "repo.memory.ClearUserTeam", userID, func(u *models.User) error {
		u.TeamID = nil
		u.IsTeamLeader = false
		u.TeamJoinedAt = nil
		u.RegisteredProjects = nil
		return nil
	})
}

func (s *Store) SetTeamLeader(ctx context.Context, userID string, isLeader bool) error {
	return s.updateUser(ctx, "repo.memory.SetTeamLeader", userID, func(u *models.User) error {
		if isLeader && !u.HasTeam() {
			return apperrors.ErrNotTeamMember
		}
		u.IsTeamLeader = isLeader
		return nil
	})
}

func (s *Store) AddUserProjects(ctx context.Context, userID string, projectIDs ...string) error {
	return s.updateUser(ctx, "repo.memory.AddUserProjects", userID, func(u *models.User) error {
		for _, id := range projectIDs {
			if !slices.Contains(u.RegisteredProjects, id) {
				u.RegisteredProjects = append(u.RegisteredProjects, id)
			}
		}
		return nil
	})
}

func (s *Store) AddUserPoints(ctx context.Context, userID string, delta int) error {
	return s.updateUser(ctx, "repo.memory.AddUserPoints", userID, func(u *models.User) error {
		if u.Points+delta < 0 {
			return apperrors.ErrNegativeBalance
		}
		u.Points += delta
		return nil
	})
}

func (s *Store) updateUser(ctx context.Context, op, userID string, mutate func(u *models.User) error) error {
	defer s.acquire(ctx)()

	u, ok := s.st.users[userID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUserNotFound)
	}
	u.RegisteredProjects = slices.Clone(u.RegisteredProjects)
	if err := mutate(&u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.st.users[userID] = u
	return nil
}

func (s *Store) materializeUser(u models.User) *models.User {
	u.RegisteredProjects = slices.Clone(u.RegisteredProjects)
	u.Submissions = nil
	for _, sub := range s.sortedSubmissions() {
		if sub.SubmittedByUser != nil && *sub.SubmittedByUser == u.ID {
			u.Submissions = append(u.Submissions, sub.ID)
		}
	}
	return &u
}

// teamMembers returns the members of teamID ordered by join time.
func (s *Store) teamMembers(teamID string) []models.User {
	var members []models.User
	for _, u := range s.st.users {
		if u.InTeam(teamID) {
			u.RegisteredProjects = slices.Clone(u.RegisteredProjects)
			members = append(members, u)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		ti, tj := members[i].TeamJoinedAt, members[j].TeamJoinedAt
		if ti != nil && tj != nil && !ti.Equal(*tj) {
			return ti.Before(*tj)
		}
		return members[i].ID < members[j].ID
	})
	return members
}
