package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects with the cgo sqlite3 driver and applies the pragmas the
// guarded status updates rely on.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := configure(db, path); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func configure(db *sql.DB, path string) error {
	// every connection to ":memory:" is a distinct database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL;")
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}

	return db.Ping()
}
