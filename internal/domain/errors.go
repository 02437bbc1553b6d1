package domain

import "errors"

// Domain errors shared across entities. Handlers map these onto the HTTP
// taxonomy: validation 400, authentication 401, authorization 403, missing
// 404, state conflicts 409, rate limiting 429, transient 503.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrConflict           = errors.New("conflict")
	ErrTransientFailure   = errors.New("transient failure")
	ErrInternal           = errors.New("internal error")
)
