package patient

import "errors"

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrNameRequired    = errors.New("name is required")
	ErrEmailRequired   = errors.New("email is required")
	ErrInvalidGender   = errors.New("invalid gender value")
	ErrConsentRequired = errors.New("privacy consent is required")
)
