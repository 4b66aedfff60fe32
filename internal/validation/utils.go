package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payloads that validate themselves.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a validation failure that validator tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the ledger tags registered.
// Field names in errors come from the json tag.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("ledger_status", func(fl validator.FieldLevel) bool {
			return model.Status(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("machine_type", func(fl validator.FieldLevel) bool {
			return model.MachineType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("capacity_unit", func(fl validator.FieldLevel) bool {
			return model.CapacityUnit(fl.Field().String()).Valid()
		})

		instance = v
	})
	return instance
}

// Struct validates v with the shared validator and returns a ledger
// validation error (errs.KindValidation) listing the failing fields.
func Struct(v any) error {
	if err := Validator().Struct(v); err != nil {
		msg, fieldErrors := extractValidationError(err)
		return errs.NewValidation(msg, fieldErrors...)
	}
	return nil
}

// BindAndValidate binds the echo request into payload and validates it.
// payload must be a pointer.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		message := "Invalid request payload"
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		}
		return errs.NewBadRequestError(message, false, nil, nil, nil)
	}

	if err := payload.Validate(); err != nil {
		var ledgerErr *errs.Error
		if errors.As(err, &ledgerErr) {
			return errs.NewBadRequestError(ledgerErr.Message, true, nil, ledgerErr.Fields, nil)
		}
		msg, fieldErrors := extractValidationError(err)
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, err := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: err.Field,
				Error: err.Message,
			})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed: " + err.Error(), nil
	}

	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min", "gte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max", "lte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "gt":
			msg = fmt.Sprintf("must be greater than %s", err.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "ledger_status":
			msg = fmt.Sprintf("must be one of: %q, %q", model.StatusOperational, model.StatusNonOperational)

		case "machine_type":
			msg = fmt.Sprintf("must be one of: %v", model.MachineTypes)

		case "capacity_unit":
			msg = fmt.Sprintf("must be one of: %v", model.CapacityUnits)

		case "datetime":
			msg = fmt.Sprintf("must be a date formatted as %s", err.Param())

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", err.Field(), err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", err.Field(), err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: err.Field(),
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}
