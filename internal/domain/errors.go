package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotActive      = errors.New("user_not_active")
	ErrBanned             = errors.New("banned")
	ErrRootProtected      = errors.New("root_protected")
	ErrOwnRole            = errors.New("own_role")
	ErrInvalidState       = errors.New("invalid_state")
	ErrInvitationInvalid  = errors.New("invitation_invalid")
	ErrResetTokenInvalid  = errors.New("reset_token_invalid")
	ErrEmailTokenInvalid  = errors.New("email_token_invalid")
	ErrBookmarksNameTaken = errors.New("bookmarks_name_taken")
	ErrUnsupportedKind    = errors.New("unsupported_kind")
	ErrUnsupportedFile    = errors.New("unsupported_file")
	ErrRateLimited        = errors.New("rate_limited")
	ErrValidation         = errors.New("validation")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// FieldError is shorthand for a ValidationError on a single field.
func FieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// BanError is returned by login when the account has an active ban.
type BanError struct {
	Ban Ban
}

func (e *BanError) Error() string { return e.Ban.Message() }

func (e *BanError) Unwrap() error { return ErrBanned }
