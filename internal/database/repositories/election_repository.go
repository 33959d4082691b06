package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"election-ledger/internal/database"
)

// ElectionRepository handles election persistence
type ElectionRepository struct {
	db *sql.DB
}

// NewElectionRepository creates a new election repository
func NewElectionRepository(db *sql.DB) *ElectionRepository {
	return &ElectionRepository{db: db}
}

const electionColumns = `id, name, description, status, window_start, window_end, total_votes, merkle_root, archive_ref, created_by, created_at, updated_at`

func scanElection(row interface{ Scan(...interface{}) error }) (*database.Election, error) {
	election := &database.Election{}
	err := row.Scan(
		&election.ID, &election.Name, &election.Description, &election.Status,
		&election.WindowStart, &election.WindowEnd, &election.TotalVotes,
		&election.MerkleRoot, &election.ArchiveRef, &election.CreatedBy,
		&election.CreatedAt, &election.UpdatedAt)
	return election, err
}

// Create inserts a new election in draft status
func (r *ElectionRepository) Create(election *database.Election) error {
	query := `INSERT INTO elections (id, name, description, status, window_start, window_end, total_votes, merkle_root, archive_ref, created_by, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, 0, '', '', ?, ?, ?)`

	_, err := r.db.Exec(query,
		election.ID, election.Name, election.Description, election.Status,
		election.WindowStart, election.WindowEnd,
		election.CreatedBy, election.CreatedAt, election.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create election: %v", err)
	}

	return nil
}

// GetByID retrieves an election by its ID
func (r *ElectionRepository) GetByID(id string) (*database.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM elections WHERE id = ?`

	election, err := scanElection(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %v", err)
	}

	return election, nil
}

// List retrieves elections, optionally filtered by status
func (r *ElectionRepository) List(status string) ([]*database.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM elections`
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %v", err)
	}
	defer rows.Close()

	var elections []*database.Election
	for rows.Next() {
		election, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %v", err)
		}
		elections = append(elections, election)
	}

	return elections, rows.Err()
}

// UpdateDraft updates name and description of a draft election
func (r *ElectionRepository) UpdateDraft(id, name, description string, updatedAt time.Time) error {
	query := `UPDATE elections SET name = ?, description = ?, updated_at = ? WHERE id = ? AND status = 'draft'`

	result, err := r.db.Exec(query, name, description, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update election: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkActiveTx transitions a draft election to active inside a
// transaction. Only draft rows match the predicate, so out-of-order
// transitions affect zero rows.
func (r *ElectionRepository) MarkActiveTx(tx *sql.Tx, id string, updatedAt time.Time) error {
	query := `UPDATE elections SET status = 'active', updated_at = ? WHERE id = ? AND status = 'draft'`

	result, err := tx.Exec(query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to activate election: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkCompletedTx transitions an election to completed inside a
// transaction, recording its sealed Merkle root and external archive
// reference. Only active rows match the predicate.
func (r *ElectionRepository) MarkCompletedTx(tx *sql.Tx, id, merkleRoot, archiveRef string, updatedAt time.Time) error {
	query := `UPDATE elections SET status = 'completed', merkle_root = ?, archive_ref = ?, updated_at = ? WHERE id = ? AND status = 'active'`

	result, err := tx.Exec(query, merkleRoot, archiveRef, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete election: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementTotalVotesTx increments the election vote counter inside a transaction
func (r *ElectionRepository) IncrementTotalVotesTx(tx *sql.Tx, id string, updatedAt time.Time) error {
	query := `UPDATE elections SET total_votes = total_votes + 1, updated_at = ? WHERE id = ?`

	result, err := tx.Exec(query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to increment election total: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}
