package sqlite

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "ownership tables and hash-chained ledger",
		SQL: `
			CREATE TABLE tokens (
				resource_key        TEXT PRIMARY KEY,
				specialty           TEXT NOT NULL,
				display_name        TEXT NOT NULL DEFAULT '',
				mint_address        TEXT NOT NULL,
				metadata_uri        TEXT NOT NULL DEFAULT '',
				owner               TEXT NOT NULL DEFAULT '',
				listed              INTEGER NOT NULL DEFAULT 0,
				list_price          REAL,
				rent_price_per_hour REAL NOT NULL DEFAULT 0.05,
				train_score         INTEGER NOT NULL DEFAULT 0,
				usage_count         INTEGER NOT NULL DEFAULT 0,
				value_score         REAL NOT NULL DEFAULT 1,
				tenant_id           TEXT NOT NULL DEFAULT '',
				created_at          TEXT NOT NULL DEFAULT '',
				last_trained_at     TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE ownership_history (
				resource_key TEXT NOT NULL REFERENCES tokens(resource_key) ON DELETE CASCADE,
				seq          INTEGER NOT NULL,
				owner        TEXT NOT NULL,
				at           TEXT NOT NULL,
				reason       TEXT NOT NULL,
				PRIMARY KEY (resource_key, seq)
			);

			CREATE TABLE rentals (
				resource_key         TEXT PRIMARY KEY,
				specialty            TEXT NOT NULL,
				owner_at_rental_time TEXT NOT NULL,
				renter               TEXT NOT NULL,
				hours                INTEGER NOT NULL,
				price_per_hour       REAL NOT NULL,
				started_at           TEXT NOT NULL,
				expires_at           TEXT NOT NULL
			);

			CREATE TABLE ledger (
				seq       INTEGER PRIMARY KEY,
				ts        TEXT NOT NULL,
				event     TEXT NOT NULL,
				specialty TEXT NOT NULL,
				payload   TEXT NOT NULL,
				prev_hash TEXT NOT NULL,
				hash      TEXT NOT NULL
			);

			CREATE TABLE state_meta (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`,
	},
	{
		Version:     2,
		Description: "persisted pending training reviews",
		SQL: `
			CREATE TABLE pending_reviews (
				message_id TEXT PRIMARY KEY,
				specialty  TEXT NOT NULL,
				requester  TEXT NOT NULL,
				question   TEXT NOT NULL DEFAULT '',
				answer     TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			);
		`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return v, nil
}
