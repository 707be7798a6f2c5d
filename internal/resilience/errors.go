package resilience

import (
	"errors"
	"net"
)

// TransientError marks a source failure that may succeed if retried, such as
// a throttled or briefly unavailable upstream.
type TransientError struct {
	Err    error
	Reason string
}

func (e *TransientError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as retryable.
func NewTransientError(err error, reason string) *TransientError {
	return &TransientError{Err: err, Reason: reason}
}

// IsTransient reports whether err, or anything it wraps, is a TransientError
// or a network timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Classify labels err "transient" or "permanent" for log fields.
func Classify(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
