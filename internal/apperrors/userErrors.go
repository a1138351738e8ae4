package apperrors

var (
	ErrUserNotFound  = New(KindNotFound, "user not found")
	ErrUserExists    = New(KindConflict, "username or email already in use")
	ErrInvalidRole   = New(KindBadRequest, "role must be user or admin")
	ErrAdminRequired = New(KindForbidden, "admin access required")
)
