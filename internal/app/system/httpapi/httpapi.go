// Package httpapi implements the response envelope and error taxonomy shared
// by every endpoint.
//
// Every response is {status, message, data}. Domain-rule violations are
// recovered into structured 4xx responses; unexpected storage or mail
// failures are logged at the boundary and surfaced as a generic 500. The
// data field is an empty list on failure so clients can always range over it.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// Kind classifies an API error for status-code mapping.
type Kind int

const (
	KindValidation Kind = iota // malformed/missing input - 400
	KindNotFound               // unknown id - 404
	KindForbidden              // authenticated but not allowed - 403
	KindConflict               // duplicate email/vote/story - 400
	KindUnsupportedMedia       // bad MIME type - 400
	KindInternal               // unexpected failure - 500
)

// Error is a classified, user-visible failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Constructors for the taxonomy.
func Validation(msg string) *Error       { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error         { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error        { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) *Error         { return &Error{Kind: KindConflict, Message: msg} }
func UnsupportedMedia(msg string) *Error { return &Error{Kind: KindUnsupportedMedia, Message: msg} }

func (k Kind) httpStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindConflict, KindUnsupportedMedia:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) statusTag() string {
	switch k {
	case KindNotFound:
		return "Not found"
	case KindForbidden:
		return "Access denied"
	case KindValidation, KindConflict, KindUnsupportedMedia:
		return "Bad request"
	default:
		return "error"
	}
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// Status writes a success envelope with a non-200 status (e.g. 206 for a
// login before e-mail verification).
func Status(w http.ResponseWriter, code int, status, message string) {
	write(w, code, Envelope{Status: status, Message: message, Data: []interface{}{}})
}

// Fail writes err as a structured failure. Unclassified errors become a
// generic 500; the underlying cause goes to the log only, never the client.
func Fail(w http.ResponseWriter, log *zap.Logger, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		write(w, apiErr.Kind.httpStatus(), Envelope{
			Status:  apiErr.Kind.statusTag(),
			Message: apiErr.Message,
			Data:    []interface{}{},
		})
		return
	}
	if log != nil {
		log.Error("request failed", zap.Error(err))
	}
	write(w, http.StatusInternalServerError, Envelope{
		Status:  "error",
		Message: "An error occurred while processing your request.",
		Data:    []interface{}{},
	})
}

func write(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}
