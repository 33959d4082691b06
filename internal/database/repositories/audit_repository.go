package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"election-ledger/internal/database"
)

// AuditRepository handles the append-only audit trail and auditor reports
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AppendLog appends an entry to the audit trail. Entries are never
// updated or deleted.
func (r *AuditRepository) AppendLog(entry *database.AuditLog) error {
	query := `INSERT INTO audit_logs (action, actor, election_id, details, entry_hash, signature, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		entry.Action, entry.Actor, entry.ElectionID, entry.Details,
		entry.EntryHash, entry.Signature, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %v", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// AppendLogTx appends an entry inside a transaction so the entry
// commits or rolls back together with the mutation it records.
func (r *AuditRepository) AppendLogTx(tx *sql.Tx, entry *database.AuditLog) error {
	query := `INSERT INTO audit_logs (action, actor, election_id, details, entry_hash, signature, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.Exec(query,
		entry.Action, entry.Actor, entry.ElectionID, entry.Details,
		entry.EntryHash, entry.Signature, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %v", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// ListLogs retrieves audit entries in insertion order, optionally
// filtered by election and action.
func (r *AuditRepository) ListLogs(electionID, action string, limit int) ([]*database.AuditLog, error) {
	query := `SELECT id, action, actor, election_id, details, entry_hash, signature, created_at
	          FROM audit_logs WHERE 1=1`
	args := []interface{}{}

	if electionID != "" {
		query += " AND election_id = ?"
		args = append(args, electionID)
	}
	if action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}
	query += " ORDER BY id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %v", err)
	}
	defer rows.Close()

	var entries []*database.AuditLog
	for rows.Next() {
		entry := &database.AuditLog{}
		err := rows.Scan(
			&entry.ID, &entry.Action, &entry.Actor, &entry.ElectionID,
			&entry.Details, &entry.EntryHash, &entry.Signature, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %v", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CreateReport files a new auditor report
func (r *AuditRepository) CreateReport(report *database.AuditReport) error {
	query := `INSERT INTO audit_reports (id, election_id, auditor, summary, findings, report_hash, archive_ref, approved, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`

	_, err := r.db.Exec(query,
		report.ID, report.ElectionID, report.Auditor, report.Summary,
		report.Findings, report.ReportHash, report.ArchiveRef, report.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create audit report: %v", err)
	}

	return nil
}

// GetReport retrieves an auditor report by its ID
func (r *AuditRepository) GetReport(id string) (*database.AuditReport, error) {
	query := `SELECT id, election_id, auditor, summary, findings, report_hash, archive_ref, approved, approved_by, approved_at, created_at
	          FROM audit_reports WHERE id = ?`

	report := &database.AuditReport{}
	err := r.db.QueryRow(query, id).Scan(
		&report.ID, &report.ElectionID, &report.Auditor, &report.Summary,
		&report.Findings, &report.ReportHash, &report.ArchiveRef,
		&report.Approved, &report.ApprovedBy,
		&report.ApprovedAt, &report.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %v", err)
	}

	return report, nil
}

// ListReports retrieves auditor reports for an election
func (r *AuditRepository) ListReports(electionID string) ([]*database.AuditReport, error) {
	query := `SELECT id, election_id, auditor, summary, findings, report_hash, archive_ref, approved, approved_by, approved_at, created_at
	          FROM audit_reports WHERE election_id = ? ORDER BY created_at ASC`

	rows, err := r.db.Query(query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit reports: %v", err)
	}
	defer rows.Close()

	var reports []*database.AuditReport
	for rows.Next() {
		report := &database.AuditReport{}
		err := rows.Scan(
			&report.ID, &report.ElectionID, &report.Auditor, &report.Summary,
			&report.Findings, &report.ReportHash, &report.ArchiveRef,
			&report.Approved, &report.ApprovedBy,
			&report.ApprovedAt, &report.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit report: %v", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ApproveReport marks a report approved. Only pending reports match the
// predicate, so a second approval affects zero rows.
func (r *AuditRepository) ApproveReport(id, approvedBy string, approvedAt time.Time) error {
	query := `UPDATE audit_reports SET approved = 1, approved_by = ?, approved_at = ? WHERE id = ? AND approved = 0`

	result, err := r.db.Exec(query, approvedBy, approvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to approve audit report: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}
