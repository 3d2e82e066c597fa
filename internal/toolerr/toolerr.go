// Package toolerr builds the single Error record shape every tool in this
// server returns on failure (spec.md §3, §7). It is the one error-builder
// used by all tools, adapted from the teacher's Result/ErrorResult
// constructor idiom in internal/tools/result.go.
package toolerr

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is a closed set of error classifications (spec.md §7).
type Kind string

const (
	KindValidation  Kind = "ValidationError"
	KindUnauthorized Kind = "Unauthorized"
	KindNotFound    Kind = "NotFound"
	KindUnavailable Kind = "Unavailable"
	KindInternal    Kind = "InternalError"
)

// Error is the structured error every tool handler returns; it also
// implements the standard error interface so it can flow through normal
// Go error handling before the interceptor chain serializes it.
type Error struct {
	Kind      Kind           `json:"type"`
	Message   string         `json:"message"`
	Operation string         `json:"operation"`
	RequestID string         `json:"request_id"`
	Params    map[string]any `json:"params,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Record is the top-level JSON shape returned to the MCP client on
// failure: {ok:false, error:<message>, operation, request_id, params}. Kind is
// not part of the wire shape (spec.md §3's Error record has no "kind"
// field) — it is carried so a caller holding only a Record, such as the
// contact resolver's in-band convention, can still classify the failure
// (e.g. to decide whether to mark_failed the session) without widening
// the wire format.
type Record struct {
	OK        bool           `json:"ok"`
	Error     string         `json:"error"`
	Operation string         `json:"operation"`
	RequestID string         `json:"request_id"`
	Params    map[string]any `json:"params,omitempty"`
	Kind      Kind           `json:"-"`
}

// New builds an *Error for the given operation. requestID should come from
// authctx/the interceptor chain; a fresh uuid is generated if empty.
func New(kind Kind, operation, requestID, message string, params map[string]any) *Error {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Error{
		Kind:      kind,
		Message:   message,
		Operation: operation,
		RequestID: requestID,
		Params:    params,
	}
}

// ToRecord converts an *Error into the wire Record shape (spec.md §3's
// Error record, also used verbatim by the contact resolver's in-band
// error-list convention from original_source/src/tools/contacts.py).
func (e *Error) ToRecord() Record {
	return Record{
		OK:        false,
		Error:     e.Message,
		Operation: e.Operation,
		RequestID: e.RequestID,
		Params:    e.Params,
		Kind:      e.Kind,
	}
}

// Validation is a convenience constructor for the common invalid-input case.
func Validation(operation, requestID, message string, params map[string]any) *Error {
	return New(KindValidation, operation, requestID, message, params)
}

// NotFound is a convenience constructor for missing-entity errors.
func NotFound(operation, requestID, message string, params map[string]any) *Error {
	return New(KindNotFound, operation, requestID, message, params)
}

// Internal is a convenience constructor for unexpected failures.
func Internal(operation, requestID string, err error, params map[string]any) *Error {
	return New(KindInternal, operation, requestID, err.Error(), params)
}
