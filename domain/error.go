package domain

import (
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/pkg/errors"
)

// ErrRecordNotFound keeps repositories independent of the driver's not-found error.
var ErrRecordNotFound = errors.New("record not found")

func httpError(code int, id, message string) DetailedError {
	return DetailedError{
		IDField:         id,
		StatusCodeField: code,
		StatusDescField: http.StatusText(code),
		ErrorField:      message,
	}
}

/****************************
*       Common errors       *
****************************/
var (
	ErrBadRequest          = httpError(http.StatusBadRequest, "BAD_REQUEST", "The request was malformed or contained invalid parameters")
	ErrUnauthorized        = httpError(http.StatusUnauthorized, "UNAUTHORIZED", "The request could not be authorized")
	ErrForbidden           = httpError(http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	ErrNotFound            = httpError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found")
	ErrTooManyRequests     = httpError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please try again later")
	ErrInternalServerError = httpError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Something went wrong on our side, please try again later")
)

// DetailedError is the error shape every handler renders. Builders take a
// value receiver and return a copy, so package level errors are never
// mutated.
type DetailedError struct {
	// Stable machine readable code, e.g. BID_TOO_LOW
	IDField string `json:"id,omitempty"`

	StatusCodeField int    `json:"code,omitempty"`
	StatusDescField string `json:"status,omitempty"`

	// Request id of the call that failed, set by the response helpers
	RIDField string `json:"request,omitempty"`

	// Human readable explanation specific to this occurrence
	ReasonField string `json:"reason,omitempty"`

	// Never rendered to clients
	DebugField string `json:"debug,omitempty"`

	ErrorField   string         `json:"message"`
	DetailsField map[string]any `json:"details,omitempty"`

	err error
}

func (e DetailedError) Error() string     { return e.ErrorField }
func (e DetailedError) Unwrap() error     { return e.err }
func (e DetailedError) ID() string        { return e.IDField }
func (e DetailedError) StatusCode() int   { return e.StatusCodeField }
func (e DetailedError) Status() string    { return e.StatusDescField }
func (e DetailedError) RequestID() string { return e.RIDField }
func (e DetailedError) Reason() string    { return e.ReasonField }
func (e DetailedError) Debug() string     { return e.DebugField }

func (e DetailedError) Details() map[string]any { return e.DetailsField }

// Is matches on identity fields only, so a copy carrying a reason or details
// still satisfies errors.Is against the package level value.
func (e DetailedError) Is(target error) bool {
	var other DetailedError
	switch t := target.(type) {
	case DetailedError:
		other = t
	case *DetailedError:
		if t == nil {
			return false
		}
		other = *t
	default:
		return false
	}
	return e.IDField == other.IDField &&
		e.StatusCodeField == other.StatusCodeField &&
		e.ErrorField == other.ErrorField
}

func (e DetailedError) WithWrap(err error) *DetailedError {
	e.err = err
	if err != nil && e.DebugField == "" {
		e.DebugField = err.Error()
	}
	return &e
}

func (e DetailedError) WithRequestID(rid string) *DetailedError {
	e.RIDField = rid
	return &e
}

func (e DetailedError) WithReason(reason string) *DetailedError {
	e.ReasonField = reason
	return &e
}

func (e DetailedError) WithReasonf(format string, args ...any) *DetailedError {
	return e.WithReason(fmt.Sprintf(format, args...))
}

func (e DetailedError) WithError(message string) *DetailedError {
	e.ErrorField = message
	return &e
}

// WithDetail copies the details map so shared error values stay untouched.
func (e DetailedError) WithDetail(key string, detail any) *DetailedError {
	details := make(map[string]any, len(e.DetailsField)+1)
	maps.Copy(details, e.DetailsField)
	details[key] = detail
	e.DetailsField = details
	return &e
}

func (e DetailedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s [%s] reason=%q details=%v", e.ErrorField, e.IDField, e.ReasonField, e.DetailsField)
			if e.err != nil {
				_, _ = fmt.Fprintf(s, ": %+v", e.err)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.ErrorField)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.ErrorField)
	}
}
