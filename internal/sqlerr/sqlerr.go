// Package sqlerr classifies database driver errors.
//
// It understands PostgreSQL errors (pgconn.PgError, SQLSTATE codes) and SQLite
// errors (go-sqlite3 extended result codes) and turns them into ledger errors
// (errs.Error) with user-friendly messages: a foreign key violation becomes a
// reference error, a CHECK or NOT NULL violation a validation error, and
// everything else an opaque store error.
package sqlerr

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Code is a driver-independent category of database error.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
)

// Severity mirrors the PostgreSQL severity levels.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityOther   Severity = "OTHER"
)

// Error is a normalized database error.
type Error struct {
	Code     Code
	Severity Severity

	// DatabaseCode is the raw SQLSTATE (postgres) or extended result code (sqlite).
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.DatabaseCode)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a PostgreSQL SQLSTATE to a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	default:
		return Other
	}
}

// MapSeverity maps the PostgreSQL severity string.
func MapSeverity(severity string) Severity {
	switch severity {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	case "NOTICE":
		return SeverityNotice
	default:
		return SeverityOther
	}
}

// ConvertPgError converts a raw postgres error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertSqliteError converts a go-sqlite3 error into an *Error.
//
// SQLite does not report table or column names in a structured way, so only
// the code and message are filled in.
func ConvertSqliteError(src sqlite3.Error) *Error {
	code := Other
	switch src.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		code = ForeignKeyViolation
	case sqlite3.ErrConstraintCheck:
		code = CheckViolation
	case sqlite3.ErrConstraintNotNull:
		code = NotNullViolation
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		code = UniqueViolation
	}

	return &Error{
		Code:         code,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(int(src.ExtendedCode)),
		Message:      src.Error(),
		driverErr:    src,
	}
}
