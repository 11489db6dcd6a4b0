package users

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so API clients can branch without
// string-matching messages.
const (
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	TextCodeDuplicateUser  = "DUPLICATE_USER"
	TextCodeUserNotFound   = "USER_NOT_FOUND"
	TextCodeBadCredentials = "BAD_CREDENTIALS"
)

// ErrNoEmptyString is returned when a required string value is empty
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryValidation)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrMismatchedHashAndPassword is returned when a password fails verification
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials)

// ErrDuplicateUser signals a username or email collision on registration.
// The two collision kinds are deliberately indistinguishable to callers.
var ErrDuplicateUser = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUser)

// ErrTokenExpired is returned for tokens past their expiration claim
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad encodings and signature mismatches
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateUserError reports whether err is the duplicate user rejection
func IsDuplicateUserError(err error) bool {
	return hasTextCode(err, TextCodeDuplicateUser)
}

// IsUniqueViolation detects unique constraint errors from the drivers we
// run against (sqlite and postgres). The store constraint is the safety net
// for the check-then-insert race, so this mapping is load bearing.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
