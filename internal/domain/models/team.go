package models

import (
	"slices"
	"time"
)

// Team membership is owned by the member side (User.TeamID); Members and
// Leaders are materialized from it when a team is loaded.
type Team struct {
	ID                 string    `db:"id" json:"team_id"`
	Name               string    `db:"name" json:"name"`
	Description        string    `db:"description" json:"description"`
	Slogan             string    `db:"slogan" json:"slogan"`
	InvitationCode     string    `db:"invitation_code" json:"invitation_code"`
	Points             int       `db:"points" json:"points"`
	MinMembers         int       `db:"min_members" json:"min_members"`
	MaxMembers         int       `db:"max_members" json:"max_members"`
	Leaders            []string  `db:"-" json:"leaders"`
	Members            []string  `db:"-" json:"members"`
	RegisteredProjects []string  `db:"-" json:"registered_projects"`
	Submissions        []string  `db:"-" json:"submissions"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

func (t *Team) HasMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

func (t *Team) IsLeader(userID string) bool {
	return slices.Contains(t.Leaders, userID)
}

func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

func (t *Team) IsRegisteredFor(projectID string) bool {
	return slices.Contains(t.RegisteredProjects, projectID)
}
