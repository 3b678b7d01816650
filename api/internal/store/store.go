// Package store is the persistence collaborator boundary: a cache of
// correction results keyed by image hash. The pipeline itself never touches
// it; only the HTTP and bot front-ends do.
package store

import (
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"             // cgo-free sqlite for local runs
)

var ErrNotFound = sql.ErrNoRows

// Open selects the driver from the DSN: postgres:// URLs go through pgx,
// anything else is treated as a sqlite file path.
func Open(dsn string) (*sql.DB, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		return db, "postgres", err
	}
	db, err := sql.Open("sqlite", dsn)
	return db, "sqlite", err
}

// EnsureSchema creates the result cache table. The DDL sticks to types both
// drivers accept.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
create table if not exists correction_results (
  image_hash    text not null,
  subject       text not null,
  grade_level   text not null,
  student_id    text not null default '',
  accuracy_rate real not null,
  result_json   text not null,
  created_at    timestamp not null default current_timestamp,
  primary key (image_hash, subject, grade_level)
)`)
	return err
}
