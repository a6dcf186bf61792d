package domain

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

var (
	// ErrUserNotFound is returned when a user profile row does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = fmt.Errorf("activity %w", ErrNotFound)
	// ErrIdentifierNotFound is returned when a user has no GenID.
	ErrIdentifierNotFound = fmt.Errorf("genid %w", ErrNotFound)
	// ErrMemberNotFound is returned when a card member or its health record is unknown.
	ErrMemberNotFound = fmt.Errorf("member %w", ErrNotFound)

	// ErrUsernameTaken reports a uniqueness violation on users.username.
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
	// ErrProfileExists reports a second setup for the same user.
	ErrProfileExists = fmt.Errorf("%w: profile already set up", ErrConflict)
	// ErrActivityExists reports a second activity for the same user and date.
	ErrActivityExists = fmt.Errorf("%w: activity already logged for this date", ErrConflict)
	// ErrIdentifierExists reports a second GenID for the same user.
	ErrIdentifierExists = fmt.Errorf("%w: genid already issued", ErrConflict)
	// ErrShortIDTaken reports a uniqueness violation on gen_ids.short_id.
	ErrShortIDTaken = fmt.Errorf("%w: short id already in use", ErrConflict)
	// ErrMemberIDTaken reports a uniqueness violation on card member ids.
	ErrMemberIDTaken = fmt.Errorf("%w: member id already in use", ErrConflict)

	// ErrIdentifierExhausted means no free short id was found within the attempt budget.
	ErrIdentifierExhausted = errors.New("genid generation exhausted")
)

// ValidationError describes input rejected before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
