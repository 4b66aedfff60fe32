// Package validation validates ledger inputs and API requests.
//
// It wraps go-playground/validator with the ledger's custom tags
// (ledger_status, machine_type, capacity_unit) and converts validator
// failures into field-level errors the client can understand.
package validation
