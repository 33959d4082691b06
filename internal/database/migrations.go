package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates all ledger tables and indexes if they do not exist.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS elections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			window_start TIMESTAMP NOT NULL,
			window_end TIMESTAMP NOT NULL,
			total_votes BIGINT NOT NULL DEFAULT 0,
			merkle_root TEXT NOT NULL DEFAULT '',
			archive_ref TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id),
			name TEXT NOT NULL,
			party TEXT NOT NULL DEFAULT '',
			ballot_number INTEGER NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			vote_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_election ON candidates(election_id)`,

		`CREATE TABLE IF NOT EXISTS voters (
			principal TEXT PRIMARY KEY,
			eligible BOOLEAN NOT NULL DEFAULT 1,
			registered_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id),
			candidate_id TEXT NOT NULL REFERENCES candidates(id),
			voter_principal TEXT NOT NULL,
			encrypted_payload BLOB,
			zk_proof BLOB,
			nullifier TEXT NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT 0,
			cast_at TIMESTAMP NOT NULL,
			UNIQUE(election_id, voter_principal)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_election ON votes(election_id)`,

		`CREATE TABLE IF NOT EXISTS nullifiers (
			value TEXT PRIMARY KEY,
			election_id TEXT NOT NULL,
			consumed_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			election_id TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			entry_hash TEXT NOT NULL,
			signature TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_election ON audit_logs(election_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action)`,

		`CREATE TABLE IF NOT EXISTS audit_reports (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id),
			auditor TEXT NOT NULL,
			summary TEXT NOT NULL,
			findings TEXT NOT NULL DEFAULT '',
			report_hash TEXT NOT NULL,
			archive_ref TEXT NOT NULL DEFAULT '',
			approved BOOLEAN NOT NULL DEFAULT 0,
			approved_by TEXT NOT NULL DEFAULT '',
			approved_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			principal TEXT NOT NULL,
			capability TEXT NOT NULL,
			granted_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(principal, capability)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %v\nstatement: %s", err, stmt)
		}
	}

	return nil
}
