package apperrors

var (
	ErrSubmissionNotFound    = New(KindNotFound, "submission not found")
	ErrSubmissionExists      = New(KindConflict, "a submission already exists for this project")
	ErrNotRegistered         = New(KindForbidden, "not registered for this project")
	ErrGithubLinkRequired    = New(KindBadRequest, "a GitHub repository link is required")
	ErrInvalidGithubLink     = New(KindBadRequest, "link must point to a github.com repository")
	ErrInvalidReviewStatus   = New(KindBadRequest, "review status must be approved or rejected")
	ErrInvalidScore          = New(KindBadRequest, "score must be between 0 and 100")
	ErrInvalidRanking        = New(KindBadRequest, "ranking must be a positive integer")
	ErrSubmissionNotApproved = New(KindBadRequest, "only approved submissions can be ranked")
	ErrAlreadyRanked         = New(KindConflict, "submission has already been ranked")
)
