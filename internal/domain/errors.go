package domain

import "errors"

var (
	ErrMissingAPIKey  = errors.New("api key is required")
	ErrInvalidRequest = errors.New("invalid generation request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMissingJobID   = errors.New("job id is required")
)
