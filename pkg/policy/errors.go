package policy

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the restriction core.
var (
	// ErrInvalid is matched by every *ValidationError.
	ErrInvalid = errors.New("invalid restriction input")

	// ErrUnlockNotRequested is returned when a gated operation is attempted
	// without a cooldown in progress.
	ErrUnlockNotRequested = errors.New("unlock not requested")

	// ErrUnlockNotReady is matched by every *UnlockNotReadyError.
	ErrUnlockNotReady = errors.New("unlock not ready")
)

// ValidationError reports malformed input that was rejected before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalid) match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// relabel re-attributes a validation failure to a more specific field.
func relabel(err error, field string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: field, Reason: ve.Reason}
	}
	return err
}

// UnlockNotReadyError is returned when a cooldown is in progress but incomplete.
type UnlockNotReadyError struct {
	Remaining time.Duration
}

func (e *UnlockNotReadyError) Error() string {
	rem := time.Duration(e.RemainingMs()) * time.Millisecond
	if rem >= time.Second {
		rem = rem.Round(time.Second)
	}
	return fmt.Sprintf("unlock not ready: %s remaining", rem)
}

// Is lets errors.Is(err, ErrUnlockNotReady) match.
func (e *UnlockNotReadyError) Is(target error) bool {
	return target == ErrUnlockNotReady
}

// RemainingMs returns the remaining cooldown rounded up to whole milliseconds.
func (e *UnlockNotReadyError) RemainingMs() int64 {
	return ceilMillis(e.Remaining)
}
