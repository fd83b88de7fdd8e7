package services

import (
	"database/sql"
	"errors"
	"fmt"
)

// Error categories. Services wrap these with context; handlers map them to
// HTTP status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBusinessRule = errors.New("request rejected")
	ErrConflict     = errors.New("conflict")
)

var ErrBadCreds = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBusinessRule, fmt.Sprintf(format, args...))
}

// notFound turns sql.ErrNoRows into ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	}
	return err
}

// Message strips the category prefix so clients see only the detail.
func Message(err error) string {
	for _, cat := range []error{ErrValidation, ErrNotFound, ErrUnauthorized, ErrForbidden, ErrBusinessRule, ErrConflict} {
		if errors.Is(err, cat) {
			msg := err.Error()
			prefix := cat.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
