package apperrors

var (
	ErrZeroDelta       = New(KindBadRequest, "points delta must not be zero")
	ErrPointsTarget    = New(KindBadRequest, "exactly one of user_id or team_id is required")
	ErrNegativeBalance = New(KindConflict, "adjustment would make the points balance negative")
)
