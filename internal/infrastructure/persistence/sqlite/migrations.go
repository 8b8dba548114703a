package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			taxpayer_id TEXT NOT NULL,
			description TEXT NOT NULL,
			amount TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			status TEXT NOT NULL,
			external_reference TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_payments_taxpayer_method
			ON payments (taxpayer_id, payment_method);`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_external_reference
			ON payments (external_reference)
			WHERE external_reference IS NOT NULL;`,

		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at DATETIME NOT NULL,
			published_at DATETIME
		);`,

		`CREATE INDEX IF NOT EXISTS idx_outbox_events_unpublished
			ON outbox_events (created_at)
			WHERE published_at IS NULL;`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
