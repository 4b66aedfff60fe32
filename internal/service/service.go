// Package service contains the ledger's business logic.
//
// It sits between the handler and repository layers: it validates inputs
// against the domain rules, runs the delete confirmation machine, and calls
// the repository for every read and write.
package service
