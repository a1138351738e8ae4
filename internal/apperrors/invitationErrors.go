package apperrors

var (
	ErrInvitationNotFound   = New(KindNotFound, "invitation not found")
	ErrInvitationExists     = New(KindConflict, "user already has a pending invitation to this team")
	ErrInvitationNotPending = New(KindConflict, "invitation is no longer pending")
	ErrInvitationExpired    = New(KindConflict, "invitation has expired")
	ErrNotInvitee           = New(KindForbidden, "invitation belongs to another user")
	ErrCannotCancel         = New(KindForbidden, "only the inviter, a team leader or an admin can cancel an invitation")
)
