package apperrors

var (
	ErrInvalidID        = New(KindBadRequest, "invalid id format")
	ErrInvalidBody      = New(KindBadRequest, "invalid request body")
	ErrInvalidLimit     = New(KindBadRequest, "limit must be a positive integer")
	ErrMissingToken     = New(KindUnauthorized, "missing or malformed authorization header")
	ErrInvalidToken     = New(KindUnauthorized, "invalid or expired token")
	ErrUnknownPrincipal = New(KindUnauthorized, "token does not belong to a known user")
)
