// Package repository holds the SQL of the maintenance ledger.
//
// Two implementations of LedgerRepository exist: PostgresLedger (pgx pool,
// the hosted relational backend) and SQLiteLedger (sqlx over go-sqlite3, the
// embedded file backend). Both return ledger errors classified by sqlerr.
package repository
