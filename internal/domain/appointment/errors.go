package appointment

import "errors"

var (
	ErrPatientRequired   = errors.New("patient reference is required")
	ErrUserIDRequired    = errors.New("user id is required")
	ErrPhysicianRequired = errors.New("primary physician is required")
	ErrScheduleRequired  = errors.New("schedule time is required")
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrInvalidUpdateKind = errors.New("update kind must be schedule or cancel")
	ErrReasonRequired    = errors.New("cancellation reason is required")
)
