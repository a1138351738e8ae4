package apperrors

var (
	ErrProjectNotFound              = New(KindNotFound, "project not found")
	ErrProjectNotActive             = New(KindConflict, "project is not active")
	ErrProjectEnded                 = New(KindConflict, "project has already ended")
	ErrAlreadyRegistered            = New(KindConflict, "already registered for this project")
	ErrTeammateRegistered           = New(KindConflict, "a member of your team is already registered for this project")
	ErrMemberRegisteredIndividually = New(KindConflict, "a team member is already registered individually for this project")
	ErrTeamTooSmall                 = New(KindConflict, "team does not have enough members for this project")
	ErrTeamRequired                 = New(KindBadRequest, "you must belong to a team to register for a team project")
	ErrInvalidProjectType           = New(KindBadRequest, "project type must be individual or team")
	ErrInvalidProjectStatus         = New(KindBadRequest, "invalid project status")
	ErrInvalidProjectDates          = New(KindBadRequest, "project start date must be before its end date")
	ErrInvalidRewards               = New(KindBadRequest, "reward points must not be negative")
	ErrProjectTitleRequired         = New(KindBadRequest, "project title is required")
)
