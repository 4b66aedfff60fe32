package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/maintenance-ledger/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// Convert normalizes a driver error into an *Error. It returns nil when err is
// neither a postgres nor a sqlite error.
func Convert(err error) *Error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return ConvertPgError(pgerr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return ConvertSqliteError(liteErr)
	}

	return nil
}

// generateErrorCode builds codes such as MAQUINARIA_NOT_FOUND from the table
// name and the violation type.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers a "<entity>_id" column, then the table name.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText turns "unidad_medida" into "Unidad Medida".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// Classify converts an error returned by a database call into a ledger error.
//
// op names the operation ("insert intervention") and ends up in the log line of
// store errors. Already classified errors pass through unchanged.
//
//	foreign key violation       -> errs.KindReference
//	check / not null violation  -> errs.KindValidation
//	no rows                     -> errs.KindNotFound
//	anything else               -> errs.KindStore
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ledgerErr *errs.Error
	if errors.As(err, &ledgerErr) {
		return err
	}

	if sqlErr := Convert(err); sqlErr != nil {
		code := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		message := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return &errs.Error{Kind: errs.KindReference, Code: code, Message: message, Err: sqlErr}

		case NotNullViolation:
			return &errs.Error{
				Kind:    errs.KindValidation,
				Code:    code,
				Message: message,
				Fields: []errs.FieldError{{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is required",
				}},
				Err: sqlErr,
			}

		case CheckViolation, UniqueViolation:
			return &errs.Error{Kind: errs.KindValidation, Code: code, Message: message, Err: sqlErr}

		default:
			return errs.NewStore(op, sqlErr)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &errs.Error{Kind: errs.KindNotFound, Code: "NOT_FOUND", Message: "Resource not found", Err: err}
	}

	return errs.NewStore(op, err)
}

// HandleError converts any error reaching the HTTP boundary into an
// *errs.HTTPError. Ledger errors map by kind, raw driver errors are classified
// first, and anything unknown becomes a generic 500.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var ledgerErr *errs.Error
	if !errors.As(Classify("request", err), &ledgerErr) {
		return errs.NewInternalServerError()
	}

	return errs.ToHTTPError(ledgerErr)
}
