package models

// ParticipantKind discriminates the two participant variants.
type ParticipantKind string

const (
	ParticipantUser ParticipantKind = "User"
	ParticipantTeam ParticipantKind = "Team"
)

func (k ParticipantKind) Valid() bool {
	return k == ParticipantUser || k == ParticipantTeam
}

// Participant references either a user or a team, never both.
type Participant struct {
	Kind ParticipantKind `json:"type"`
	ID   string          `json:"id"`
}

func UserParticipant(userID string) Participant {
	return Participant{Kind: ParticipantUser, ID: userID}
}

func TeamParticipant(teamID string) Participant {
	return Participant{Kind: ParticipantTeam, ID: teamID}
}

func (p Participant) IsUser() bool { return p.Kind == ParticipantUser }

func (p Participant) IsTeam() bool { return p.Kind == ParticipantTeam }

func (p Participant) String() string {
	return string(p.Kind) + ":" + p.ID
}
