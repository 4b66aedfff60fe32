package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed sqlite/schema.sql
var sqliteSchema string

// SQLite wraps the embedded file database.
type SQLite struct {
	DB  *sqlx.DB
	log *zerolog.Logger
}

// SQLiteDSN turns a file path into a go-sqlite3 DSN with foreign key
// enforcement on and a busy timeout for concurrent writers.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", path)
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// the ledger schema.
func OpenSQLite(path string, logger *zerolog.Logger) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY on the
	// cascade delete transaction.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("opened sqlite database")

	return &SQLite{DB: db, log: logger}, nil
}

// Ping checks the database file is still usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Close() error {
	s.log.Info().Msg("closing sqlite database")
	return s.DB.Close()
}
