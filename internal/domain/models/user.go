package models

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                 string     `db:"id" json:"user_id"`
	Username           string     `db:"username" json:"username"`
	Email              string     `db:"email" json:"email"`
	Role               Role       `db:"role" json:"role"`
	Points             int        `db:"points" json:"points"`
	TeamID             *string    `db:"team_id" json:"team_id,omitempty"`
	IsTeamLeader       bool       `db:"is_team_leader" json:"is_team_leader"`
	TeamJoinedAt       *time.Time `db:"team_joined_at" json:"-"`
	RegisteredProjects []string   `db:"-" json:"registered_projects"`
	Submissions        []string   `db:"-" json:"submissions"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasTeam() bool {
	return u.TeamID != nil && *u.TeamID != ""
}

func (u *User) InTeam(teamID string) bool {
	return u.HasTeam() && *u.TeamID == teamID
}

func (u *User) IsRegisteredFor(projectID string) bool {
	return slices.Contains(u.RegisteredProjects, projectID)
}

// Actor is the authenticated caller as resolved by the identity layer.
type Actor struct {
	ID           string  `json:"user_id"`
	Role         Role    `json:"role"`
	TeamID       *string `json:"team_id,omitempty"`
	IsTeamLeader bool    `json:"is_team_leader"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func ActorFromUser(u *User) Actor {
	return Actor{
		ID:           u.ID,
		Role:         u.Role,
		TeamID:       u.TeamID,
		IsTeamLeader: u.IsTeamLeader,
	}
}
