package ai

import (
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	// ErrProvider wraps every failure returned by a model backend.
	ErrProvider = errors.New("ai provider error")

	// ErrTransient marks a provider failure worth retrying: timeouts, dropped
	// connections, rate limiting and 5xx responses.
	ErrTransient = errors.New("transient provider error")

	// ErrInvalidConfig indicates a Config that failed validation.
	ErrInvalidConfig = errors.New("ai config")
)

// IsTransient reports whether err is a network-level or explicitly transient failure.
// An expired per-call deadline counts as a timeout; cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
