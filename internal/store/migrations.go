package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the analysis tree tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id     INTEGER NOT NULL,
			score       REAL NOT NULL,
			analyzed_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_contexts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id  INTEGER NOT NULL REFERENCES analyses(id),
			name         TEXT NOT NULL,
			display_name TEXT NOT NULL,
			weight       REAL NOT NULL,
			score        REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_factors (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			context_id   INTEGER NOT NULL REFERENCES analysis_contexts(id),
			name         TEXT NOT NULL,
			display_name TEXT NOT NULL,
			weight       REAL NOT NULL,
			score        REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_operations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			factor_id     INTEGER NOT NULL REFERENCES analysis_factors(id),
			name          TEXT NOT NULL,
			display_name  TEXT NOT NULL,
			weight        REAL NOT NULL,
			score         REAL NOT NULL,
			success       BOOLEAN NOT NULL,
			external_api  BOOLEAN NOT NULL DEFAULT false,
			payload       TEXT,
			suggestions   TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS post_meta (
			post_id     INTEGER PRIMARY KEY,
			score       REAL NOT NULL,
			analyzed_at TEXT NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_analyses_post ON analyses(post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contexts_analysis ON analysis_contexts(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_factors_context ON analysis_factors(context_id)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_factor ON analysis_operations(factor_id)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
