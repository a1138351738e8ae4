package models

import "time"

type TransactionKind string

const (
	TransactionAwarded          TransactionKind = "awarded"
	TransactionBonus            TransactionKind = "bonus"
	TransactionManualAdjustment TransactionKind = "manual_adjustment"
)

// PointTransaction is an append-only ledger row. Balances on users and teams
// are the running sum of their rows.
type PointTransaction struct {
	ID            string          `db:"id" json:"transaction_id"`
	Kind          TransactionKind `db:"kind" json:"kind"`
	RecipientType ParticipantKind `db:"recipient_type" json:"recipient_type"`
	RecipientID   string          `db:"recipient_id" json:"recipient_id"`
	Amount        int             `db:"amount" json:"amount"`
	SubmissionID  *string         `db:"submission_id" json:"submission_id,omitempty"`
	Reason        string          `db:"reason" json:"reason"`
	ActorID       string          `db:"actor_id" json:"actor_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

func (t PointTransaction) Recipient() Participant {
	return Participant{Kind: t.RecipientType, ID: t.RecipientID}
}

type DistributionEntry struct {
	RecipientType ParticipantKind `json:"recipient_type"`
	RecipientID   string          `json:"recipient_id"`
	Name          string          `json:"name"`
	Amount        int             `json:"amount"`
	Kind          TransactionKind `json:"kind"`
}

// Distribution reports who was credited for a ranked submission.
type Distribution struct {
	SubmissionID  string              `json:"submission_id"`
	Ranking       int                 `json:"ranking"`
	PointsAwarded int                 `json:"points_awarded"`
	Entries       []DistributionEntry `json:"distribution"`
}

func (d Distribution) Total() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Amount
	}
	return total
}

type LeaderboardEntry struct {
	Rank   int    `db:"-" json:"rank"`
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Points int    `db:"points" json:"points"`
}
