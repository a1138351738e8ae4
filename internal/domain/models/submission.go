package models

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission has exactly one of SubmittedByUser and SubmittedByTeam set.
type Submission struct {
	ID              string           `db:"id" json:"submission_id"`
	ProjectID       string           `db:"project_id" json:"project_id"`
	SubmittedByUser *string          `db:"submitted_by_user" json:"submitted_by_user,omitempty"`
	SubmittedByTeam *string          `db:"submitted_by_team" json:"submitted_by_team,omitempty"`
	GithubLink      string           `db:"github_link" json:"github_link"`
	Description     string           `db:"description" json:"description"`
	Status          SubmissionStatus `db:"status" json:"status"`
	Score           *int             `db:"score" json:"score,omitempty"`
	Feedback        string           `db:"feedback" json:"feedback"`
	ReviewedBy      *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Ranking         *int             `db:"ranking" json:"ranking,omitempty"`
	PointsAwarded   *int             `db:"points_awarded" json:"points_awarded,omitempty"`
	RankedAt        *time.Time       `db:"ranked_at" json:"ranked_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

func NewSubmission(id, projectID string, by Participant, githubLink, description string, now time.Time) *Submission {
	s := &Submission{
		ID:          id,
		ProjectID:   projectID,
		GithubLink:  githubLink,
		Description: description,
		Status:      SubmissionPending,
		CreatedAt:   now,
	}
	owner := by.ID
	if by.IsTeam() {
		s.SubmittedByTeam = &owner
	} else {
		s.SubmittedByUser = &owner
	}
	return s
}

func (s *Submission) Submitter() Participant {
	if s.SubmittedByTeam != nil {
		return TeamParticipant(*s.SubmittedByTeam)
	}
	if s.SubmittedByUser != nil {
		return UserParticipant(*s.SubmittedByUser)
	}
	return Participant{}
}

func (s *Submission) IsRanked() bool {
	return s.Ranking != nil
}
