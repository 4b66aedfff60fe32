package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure.
type Kind string

const (
	// KindValidation is malformed or out-of-domain input: empty name,
	// negative cost, unknown status.
	KindValidation Kind = "VALIDATION"

	// KindReference means a foreign key target (the machine) does not exist.
	KindReference Kind = "REFERENCE"

	// KindNotFound means the update/delete target does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindStore is a connectivity or transaction failure of the database.
	// It is opaque to the caller and never retried at this layer.
	KindStore Kind = "STORE"
)

// Error is the error type returned by the repository and service layers.
type Error struct {
	Kind Kind

	// Code is a machine-friendly code such as "MACHINE_NOT_FOUND".
	Code string

	// Message is safe to show to a user.
	Message string

	// Fields holds per-field validation failures, if any.
	Fields []FieldError

	// Err is the underlying cause (driver error, validator error).
	Err error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrReference  = &Error{Kind: KindReference}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStore      = &Error{Kind: KindStore}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so callers can write
// errors.Is(err, errs.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewValidation builds a KindValidation error. fields may be nil.
func NewValidation(message string, fields ...FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "VALIDATION_FAILED",
		Message: message,
		Fields:  fields,
	}
}

// NewReference builds a KindReference error for a missing parent row.
func NewReference(entity string, id int64) *Error {
	return &Error{
		Kind:    KindReference,
		Code:    MakeUpperCaseWithUnderscores(entity) + "_NOT_FOUND",
		Message: fmt.Sprintf("The referenced %s %d does not exist", entity, id),
	}
}

// NewNotFound builds a KindNotFound error.
func NewNotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    MakeUpperCaseWithUnderscores(entity) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s %d not found", entity, id),
	}
}

// NewStore wraps a database failure. op names the failed operation for logs.
func NewStore(op string, err error) *Error {
	return &Error{
		Kind:    KindStore,
		Code:    "STORE_ERROR",
		Message: op + " failed",
		Err:     err,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ToHTTPError maps a ledger *Error into the API error shape.
//
//	VALIDATION -> 400
//	REFERENCE  -> 422
//	NOT_FOUND  -> 404
//	STORE      -> 500 (message never leaks the driver error)
func ToHTTPError(e *Error) *HTTPError {
	code := e.Code
	switch e.Kind {
	case KindValidation:
		return NewBadRequestError(e.Message, true, &code, e.Fields, nil)
	case KindReference:
		return NewUnprocessableEntityError(e.Message, true, &code)
	case KindNotFound:
		return NewNotFoundError(e.Message, true, &code)
	default:
		return NewInternalServerError()
	}
}
