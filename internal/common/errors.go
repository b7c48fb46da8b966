package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrNotFound     = errors.New("requested resource not found")
	ErrUpstream     = errors.New("upstream service failure")
	ErrRateLimited  = errors.New("rate limited")

	// Token verification outcomes. All of them are unauthorized at the HTTP boundary.
	ErrTokenMissing = fmt.Errorf("token missing: %w", ErrUnauthorized)
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrUnauthorized)
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", ErrUnauthorized)

	// ErrUserGone is a verified token whose subject no longer exists.
	ErrUserGone = fmt.Errorf("user no longer exists: %w", ErrUnauthorized)

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
)

// User-visible messages. These are the only strings that leave the process on failure.
const (
	MsgNotLoggedIn        = "Not logged in"
	MsgUserGone           = "User no longer exists"
	MsgEmailExists        = "Email already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgPostNotFound       = "Post not found"
	MsgGenerationFailed   = "Failed to generate post"
	MsgTooManyRequests    = "Too many requests, please try again later."
	MsgInternal           = "Something went wrong"
)

// ValidationError lists the offending fields and carries a message safe to show to the caller.
type ValidationError struct {
	Fields  []string
	Message string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed (%s): %s", strings.Join(e.Fields, ", "), e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateKey) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	if IsUniqueViolation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage picks the stable, user-safe message for err. Raw error text never reaches the caller.
func PublicMessage(err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, ErrDuplicateKey), IsUniqueViolation(err):
		return MsgEmailExists
	case errors.Is(err, ErrUserGone):
		return MsgUserGone
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return MsgNotLoggedIn
	case errors.Is(err, ErrNotFound):
		return MsgPostNotFound
	case errors.Is(err, ErrUpstream):
		return MsgGenerationFailed
	case errors.Is(err, ErrRateLimited):
		return MsgTooManyRequests
	default:
		return MsgInternal
	}
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
