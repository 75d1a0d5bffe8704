package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

const (
	MsgNetwork = "Network error - check your connection"
	MsgUnknown = "An error occurred"
)

// Error is a failed remote call. StatusCode is zero when no response was
// received at all.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: no response: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func FromStatus(op string, status int, message string) *Error {
	return &Error{Op: op, StatusCode: status, Message: message}
}

func Network(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// ValidationError is raised locally before a request is built.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type Classification struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

var statusMessages = map[int]struct {
	kind Kind
	msg  string
}{
	http.StatusBadRequest:          {KindValidation, "Invalid request"},
	http.StatusUnauthorized:        {KindUnauthorized, "Unauthorized - please log in"},
	http.StatusForbidden:           {KindForbidden, "Access forbidden"},
	http.StatusNotFound:            {KindNotFound, "Resource not found"},
	http.StatusConflict:            {KindConflict, "Conflict - resource already exists"},
	http.StatusUnprocessableEntity: {KindValidation, "Validation error"},
	http.StatusTooManyRequests:     {KindRateLimited, "Too many requests - please slow down"},
	http.StatusInternalServerError: {KindServer, "Server error - please try again"},
	http.StatusServiceUnavailable:  {KindServer, "Service unavailable"},
}

// Classify maps a failure to its kind and user-facing message. A structured
// server message wins over the status table, which wins over the network
// fallback.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown, Message: MsgUnknown}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return Classification{Kind: KindValidation, Message: verr.Message}
	}

	var aerr *Error
	if !errors.As(err, &aerr) {
		return Classification{Kind: KindUnknown, Message: err.Error()}
	}

	if aerr.StatusCode == 0 {
		return Classification{Kind: KindNetwork, Message: MsgNetwork}
	}

	c := Classification{Kind: kindFor(aerr.StatusCode), Status: aerr.StatusCode}
	if aerr.Message != "" {
		c.Message = aerr.Message
		return c
	}
	if m, ok := statusMessages[aerr.StatusCode]; ok {
		c.Message = m.msg
		return c
	}
	if aerr.StatusCode >= 500 {
		c.Message = "Server error - please try again"
		return c
	}
	c.Message = fmt.Sprintf("Error: %d", aerr.StatusCode)
	return c
}

func kindFor(status int) Kind {
	if m, ok := statusMessages[status]; ok {
		return m.kind
	}
	if status >= 500 {
		return KindServer
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool {
	var aerr *Error
	return errors.As(err, &aerr) && aerr.StatusCode == http.StatusUnauthorized
}
