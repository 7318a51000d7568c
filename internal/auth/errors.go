package auth

import "errors"

// Token decode failures. All of them collapse to "not authenticated" at the
// HTTP boundary; they stay distinct here so callers and tests can tell them
// apart.
var (
	ErrMalformed        = errors.New("auth: malformed token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")
	ErrWrongTokenClass  = errors.New("auth: wrong token class")
)

// Gate outcomes. ErrForbidden is the only denial issued for a caller that is
// known and authenticated, and must map to 403 rather than 401.
var (
	ErrUnauthorized = errors.New("auth: not authorized")
	ErrForbidden    = errors.New("auth: forbidden")
)

// Store errors.
var (
	ErrUserNotFound  = errors.New("auth: user not found")
	ErrDuplicateUser = errors.New("auth: username or email already exists")
)
