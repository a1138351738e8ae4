package apperrors

var (
	ErrTeamNotFound          = New(KindNotFound, "team not found")
	ErrStaleTeamReference    = New(KindNotFound, "your team no longer exists, the stale reference was cleared")
	ErrInvalidInvitationCode = New(KindNotFound, "invalid invitation code")
	ErrTeamNameRequired      = New(KindBadRequest, "team name is required")
	ErrTeamNameTaken         = New(KindConflict, "team name already taken")
	ErrAlreadyInTeam         = New(KindConflict, "user already belongs to a team")
	ErrMemberOfOtherTeam     = New(KindConflict, "user belongs to another team")
	ErrAlreadyMember         = New(KindConflict, "user is already a member of this team")
	ErrTeamFull              = New(KindConflict, "team has reached its maximum number of members")
	ErrNotTeamMember         = New(KindBadRequest, "user is not a member of this team")
	ErrSoleLeader            = New(KindConflict, "the only team leader cannot be removed, promote another member first")
	ErrLeaderLimit           = New(KindConflict, "a team cannot have more than two leaders")
	ErrAlreadyLeader         = New(KindConflict, "user is already a team leader")
	ErrNotLeader             = New(KindConflict, "user is not a team leader")
	ErrLeaderRequired        = New(KindForbidden, "only a team leader or an admin can perform this action")
)
