package domain

import (
	stderr "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// ErrRecordNotFound is used to make our application logic independent of other libraries errors
var ErrRecordNotFound = errors.New("record not found")

// ErrorKind classifies a DetailedError so callers can dispatch on it
// without comparing against every sentinel.
type ErrorKind string

const (
	KindInternal        ErrorKind = "INTERNAL"
	KindInputValidation ErrorKind = "INPUT_VALIDATION"
	KindDataValidation  ErrorKind = "DATA_VALIDATION"
	KindDatabase        ErrorKind = "DATABASE"
	KindInvalidToken    ErrorKind = "INVALID_TOKEN"
	KindExpiredToken    ErrorKind = "EXPIRED_TOKEN"
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindForbidden       ErrorKind = "FORBIDDEN"
)

var (
	ErrNotFound = &DetailedError{
		IDField:         "NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "The requested resource could not be found",
		StatusCodeField: http.StatusNotFound,
		KindField:       KindDataValidation,
	}

	ErrUnauthorized = &DetailedError{
		IDField:         "UNAUTHORIZED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "The request could not be authorized",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindUnauthorized,
	}

	ErrForbidden = &DetailedError{
		IDField:         "FORBIDDEN",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "The requested action was forbidden",
		StatusCodeField: http.StatusForbidden,
		KindField:       KindForbidden,
	}

	ErrTooManyRequests = &DetailedError{
		IDField:         "TOO_MANY_REQUESTS",
		StatusDescField: http.StatusText(http.StatusTooManyRequests),
		ErrorField:      "Too many requests, please try again later",
		StatusCodeField: http.StatusTooManyRequests,
		KindField:       KindForbidden,
	}

	ErrInternalServerError = &DetailedError{
		IDField:         "INTERNAL_SERVER_ERROR",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "An internal server error occurred, please contact the system administrator",
		StatusCodeField: http.StatusInternalServerError,
		KindField:       KindInternal,
	}

	ErrBadRequest = &DetailedError{
		IDField:         "BAD_REQUEST",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "The request was malformed or contained invalid parameters",
		StatusCodeField: http.StatusBadRequest,
		KindField:       KindInputValidation,
	}

	ErrInputValidation = &DetailedError{
		IDField:         "INPUT_VALIDATION_FAILED",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "One or more fields are missing or invalid",
		StatusCodeField: http.StatusBadRequest,
		KindField:       KindInputValidation,
	}

	ErrConflict = &DetailedError{
		IDField:         "CONFLICT",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "The resource could not be created due to a conflict",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}

	ErrDatabase = &DetailedError{
		IDField:         "DATABASE_ERROR",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "A storage operation failed unexpectedly",
		StatusCodeField: http.StatusInternalServerError,
		KindField:       KindDatabase,
	}
)

type DetailedError struct {
	// The error ID
	//
	// Useful when trying to identify various errors in application logic.
	IDField string `json:"id,omitempty"`

	// The status code
	//
	// example: 404
	StatusCodeField int `json:"code,omitempty"`

	// The status description
	//
	// example: Not Found
	StatusDescField string `json:"status,omitempty"`

	// The request ID
	//
	// example: d7ef54b1-ec15-46e6-bccb-524b82c035e6
	RIDField string `json:"request,omitempty"`

	// A human-readable reason for the error
	//
	// example: Role with ID 1234 does not exist.
	ReasonField string `json:"reason,omitempty"`

	// Debug information, never exposed to clients.
	DebugField string `json:"-"`

	// Error message
	//
	// example: The resource could not be found
	// required: true
	ErrorField string `json:"message"`

	// Further error details
	DetailsField map[string]interface{} `json:"details,omitempty"`

	// Kind groups errors by the layer that raised them.
	KindField ErrorKind `json:"kind,omitempty"`

	err error
}

// StackTrace returns the error's stack trace.
func (e *DetailedError) StackTrace() (trace errors.StackTrace) {
	if e.err == e {
		return
	}

	if st := stackTracer(nil); stderr.As(e.err, &st) {
		trace = st.StackTrace()
	}

	return
}

func (e DetailedError) Unwrap() error {
	return e.err
}

func (e *DetailedError) Wrap(err error) {
	e.err = err
}

func (e DetailedError) WithWrap(err error) *DetailedError {
	e.err = err
	return &e
}

func (e DetailedError) WithID(id string) *DetailedError {
	e.IDField = id
	return &e
}

func (e *DetailedError) WithTrace(err error) *DetailedError {
	if st := stackTracer(nil); !stderr.As(e.err, &st) {
		e.Wrap(errors.WithStack(err))
	} else {
		e.Wrap(err)
	}
	return e
}

// Is matches on identity fields only, so a sentinel still matches after
// WithReason, WithDetail or WithWrap.
func (e DetailedError) Is(err error) bool {
	switch te := err.(type) {
	case DetailedError:
		return e.IDField == te.IDField &&
			e.StatusCodeField == te.StatusCodeField &&
			e.KindField == te.KindField
	case *DetailedError:
		return e.IDField == te.IDField &&
			e.StatusCodeField == te.StatusCodeField &&
			e.KindField == te.KindField
	default:
		return false
	}
}

func (e DetailedError) Status() string {
	return e.StatusDescField
}

func (e DetailedError) ID() string {
	return e.IDField
}

func (e DetailedError) Error() string {
	return e.ErrorField
}

func (e DetailedError) RequestID() string {
	return e.RIDField
}

func (e DetailedError) Reason() string {
	return e.ReasonField
}

func (e DetailedError) Debug() string {
	return e.DebugField
}

func (e DetailedError) Details() map[string]interface{} {
	return e.DetailsField
}

func (e DetailedError) StatusCode() int {
	return e.StatusCodeField
}

func (e DetailedError) Kind() ErrorKind {
	return e.KindField
}

func (e DetailedError) WithKind(kind ErrorKind) *DetailedError {
	e.KindField = kind
	return &e
}

func (e DetailedError) WithReason(reason string) *DetailedError {
	e.ReasonField = reason
	return &e
}

func (e DetailedError) WithReasonf(reason string, args ...interface{}) *DetailedError {
	return e.WithReason(fmt.Sprintf(reason, args...))
}

func (e DetailedError) WithRequestID(requestID string) *DetailedError {
	e.RIDField = requestID
	return &e
}

func (e DetailedError) WithDebug(debug string) *DetailedError {
	e.DebugField = debug
	return &e
}

func (e DetailedError) WithDebugf(debug string, args ...interface{}) *DetailedError {
	return e.WithDebug(fmt.Sprintf(debug, args...))
}

// WithDetail copies the details map before writing so sentinels are never mutated.
func (e DetailedError) WithDetail(key string, detail interface{}) *DetailedError {
	details := make(map[string]interface{}, len(e.DetailsField)+1)
	for k, v := range e.DetailsField {
		details[k] = v
	}
	details[key] = detail
	e.DetailsField = details
	return &e
}

func (e DetailedError) WithDetails(details map[string]interface{}) *DetailedError {
	merged := make(map[string]interface{}, len(e.DetailsField)+len(details))
	for k, v := range e.DetailsField {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.DetailsField = merged
	return &e
}

func (e DetailedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "id=%s\n", e.IDField)
			_, _ = fmt.Fprintf(s, "kind=%s\n", e.KindField)
			_, _ = fmt.Fprintf(s, "rid=%s\n", e.RIDField)
			_, _ = fmt.Fprintf(s, "error=%s\n", e.ErrorField)
			_, _ = fmt.Fprintf(s, "reason=%s\n", e.ReasonField)
			_, _ = fmt.Fprintf(s, "details=%+v\n", e.DetailsField)
			_, _ = fmt.Fprintf(s, "debug=%s\n", e.DebugField)
			if e.err != nil {
				_, _ = fmt.Fprintf(s, "cause=%v\n", e.err)
			}
			e.StackTrace().Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.ErrorField)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.ErrorField)
	}
}

// KindOf reports the kind of the first DetailedError in err's chain.
// Errors that carry no kind are treated as internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if c := KindCarrier(nil); stderr.As(err, &c) && c.Kind() != "" {
		return c.Kind()
	}
	return KindInternal
}

// AsDetailedError returns err as a DetailedError, wrapping unknown errors
// into ErrInternalServerError.
func AsDetailedError(err error) *DetailedError {
	var de *DetailedError
	if stderr.As(err, &de) {
		return de
	}
	return ErrInternalServerError.WithWrap(err)
}

func ToDefaultError(err error, requestID string) *DetailedError {
	de := &DetailedError{
		RIDField:        requestID,
		StatusCodeField: http.StatusInternalServerError,
		DetailsField:    map[string]interface{}{},
		ErrorField:      err.Error(),
		KindField:       KindInternal,
	}
	de.Wrap(err)

	if c := ReasonCarrier(nil); stderr.As(err, &c) {
		de.ReasonField = c.Reason()
	}
	if c := RequestIDCarrier(nil); stderr.As(err, &c) && c.RequestID() != "" {
		de.RIDField = c.RequestID()
	}
	if c := DetailsCarrier(nil); stderr.As(err, &c) && c.Details() != nil {
		de.DetailsField = c.Details()
	}
	if c := StatusCarrier(nil); stderr.As(err, &c) && c.Status() != "" {
		de.StatusDescField = c.Status()
	}
	if c := StatusCodeCarrier(nil); stderr.As(err, &c) && c.StatusCode() != 0 {
		de.StatusCodeField = c.StatusCode()
	}
	if c := DebugCarrier(nil); stderr.As(err, &c) {
		de.DebugField = c.Debug()
	}
	if c := IDCarrier(nil); stderr.As(err, &c) {
		de.IDField = c.ID()
	}
	if c := KindCarrier(nil); stderr.As(err, &c) && c.Kind() != "" {
		de.KindField = c.Kind()
	}

	if de.StatusDescField == "" {
		de.StatusDescField = http.StatusText(de.StatusCode())
	}

	return de
}

// StatusCodeCarrier can be implemented by an error to support setting status codes in the error itself.
type StatusCodeCarrier interface {
	// StatusCode returns the status code of this error.
	StatusCode() int
}

// RequestIDCarrier can be implemented by an error to support error contexts.
type RequestIDCarrier interface {
	// RequestID returns the ID of the request that caused the error, if applicable.
	RequestID() string
}

// ReasonCarrier can be implemented by an error to support error contexts.
type ReasonCarrier interface {
	// Reason returns the reason for the error, if applicable.
	Reason() string
}

// DebugCarrier can be implemented by an error to support error contexts.
type DebugCarrier interface {
	// Debug returns debugging information for the error, if applicable.
	Debug() string
}

// StatusCarrier can be implemented by an error to support error contexts.
type StatusCarrier interface {
	// Status returns the status description, if applicable.
	Status() string
}

// DetailsCarrier can be implemented by an error to support error contexts.
type DetailsCarrier interface {
	// Details returns details on the error, if applicable.
	Details() map[string]interface{}
}

// IDCarrier can be implemented by an error to support error contexts.
type IDCarrier interface {
	// ID returns application error ID on the error, if applicable.
	ID() string
}

// KindCarrier can be implemented by an error to expose its ErrorKind.
type KindCarrier interface {
	Kind() ErrorKind
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
