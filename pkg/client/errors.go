package client

import (
	"errors"
	"fmt"
)

// Kind categorizes client failures.
type Kind int

const (
	// KindUnknown is the default when no kind applies.
	KindUnknown Kind = iota
	// KindTransport covers network errors and timeouts.
	KindTransport
	// KindStatus is a non-2xx response.
	KindStatus
	// KindDecode is a response body that could not be decoded.
	KindDecode
	// KindUnauthorized is a 401 or a rejected login.
	KindUnauthorized
	// KindNotFound is a 404 for a single resource.
	KindNotFound
	// KindConfig is a client that cannot issue requests (e.g. no base URL).
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is a kinded client error.
type Error struct {
	Kind       Kind
	Op         string // operation that failed, e.g. "list leads"
	Message    string
	StatusCode int   // HTTP status for KindStatus/KindUnauthorized/KindNotFound
	Err        error // underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// GetKind extracts the kind from err, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a client error of the given kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}
