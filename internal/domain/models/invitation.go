package models

import "time"

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationRejected  InvitationStatus = "rejected"
	InvitationCancelled InvitationStatus = "cancelled"
)

type TeamInvitation struct {
	ID          string           `db:"id" json:"invitation_id"`
	TeamID      string           `db:"team_id" json:"team_id"`
	InvitedUser string           `db:"invited_user" json:"invited_user"`
	InvitedBy   string           `db:"invited_by" json:"invited_by"`
	Status      InvitationStatus `db:"status" json:"status"`
	ExpiresAt   time.Time        `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	RespondedAt *time.Time       `db:"responded_at" json:"responded_at,omitempty"`
}

func (i *TeamInvitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
