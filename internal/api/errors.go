package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// KindTimeout means the call's deadline elapsed before a response arrived.
	// The call is abandoned client-side; the backend is not asked to stop.
	KindTimeout ErrorKind = iota
	// KindNetwork means the backend could not be reached at all
	// (connection refused, DNS failure, reset mid-response).
	KindNetwork
	// KindBackend means the backend answered with a non-success status.
	KindBackend
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Error is the normalized failure of a backend call. Every request the
// Client issues resolves into either a decoded payload or exactly one of
// these, so callers can branch on Kind and embed Detail in whatever they
// show the user.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, set for KindBackend only
	Detail string // human-readable detail, always set
	Err    error  // underlying transport error, when any
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts the typed error from err, nil when err is not one.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	e := AsError(err)
	return e != nil && e.Kind == KindTimeout
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	e := AsError(err)
	return e != nil && e.Kind == KindNetwork
}

// IsBackend reports whether err is a backend-reported error status.
func IsBackend(err error) bool {
	e := AsError(err)
	return e != nil && e.Kind == KindBackend
}

// Detail returns the human-readable detail carried by err, or err.Error()
// for errors that did not come from the Client.
func Detail(err error) string {
	if e := AsError(err); e != nil {
		return e.Detail
	}
	return err.Error()
}
