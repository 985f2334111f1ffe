// Package db opens the portal's Postgres connection and carries its embedded
// migrations. All repositories share the one *sql.DB opened here.
package db

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens and pings a Postgres connection for the given DSN. The caller
// owns the handle and must Close it on shutdown.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
