package models

import (
	"slices"
	"time"
)

type ProjectType string

const (
	ProjectIndividual ProjectType = "individual"
	ProjectTeam       ProjectType = "team"
)

func (t ProjectType) Valid() bool {
	return t == ProjectIndividual || t == ProjectTeam
}

// ParticipantKind is the only participant variant a project of this type accepts.
func (t ProjectType) ParticipantKind() ParticipantKind {
	if t == ProjectTeam {
		return ParticipantTeam
	}
	return ParticipantUser
}

type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Rewards is the points table of a project.
type Rewards struct {
	FirstPlacePoints        int `db:"first_place_points" json:"first_place_points"`
	SecondPlacePoints       int `db:"second_place_points" json:"second_place_points"`
	ThirdPlacePoints        int `db:"third_place_points" json:"third_place_points"`
	OtherParticipantsPoints int `db:"other_participants_points" json:"other_participants_points"`
}

// PointsForRank maps a ranking to its reward. Ranks past third share the
// "other participants" reward.
func (r Rewards) PointsForRank(rank int) int {
	switch rank {
	case 1:
		return r.FirstPlacePoints
	case 2:
		return r.SecondPlacePoints
	case 3:
		return r.ThirdPlacePoints
	default:
		return r.OtherParticipantsPoints
	}
}

func (r Rewards) Valid() bool {
	return r.FirstPlacePoints >= 0 && r.SecondPlacePoints >= 0 &&
		r.ThirdPlacePoints >= 0 && r.OtherParticipantsPoints >= 0
}

type Project struct {
	ID           string        `db:"id" json:"project_id"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	Type         ProjectType   `db:"type" json:"type"`
	Status       ProjectStatus `db:"status" json:"status"`
	StartDate    time.Time     `db:"start_date" json:"start_date"`
	EndDate      time.Time     `db:"end_date" json:"end_date"`
	Rewards      `json:"rewards"`
	Participants []Participant `db:"-" json:"participants"`
	Submissions  []string      `db:"-" json:"submissions"`
	CreatedBy    *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

func (p *Project) HasParticipant(part Participant) bool {
	return slices.Contains(p.Participants, part)
}

// AcceptingAt reports whether the project is active and not past its end date.
func (p *Project) AcceptingAt(now time.Time) bool {
	return p.Status == ProjectActive && !now.After(p.EndDate)
}
