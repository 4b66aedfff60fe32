// Package errs defines the error types shared by every layer of the ledger.
//
// Two families live here:
//   - Error: the ledger's own failure kinds (validation, reference, not found, store),
//     returned by repositories and services and matched with errors.Is.
//   - HTTPError: the JSON error shape written to API clients by the global error handler.
//
// ToHTTPError bridges the two at the transport boundary.
package errs
