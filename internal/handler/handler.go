// Package handler is the HTTP layer of the ledger. It binds and validates
// requests, calls the ledger service and writes the JSON responses.
package handler
