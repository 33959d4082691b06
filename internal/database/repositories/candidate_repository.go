package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"election-ledger/internal/database"
)

// CandidateRepository handles candidate persistence
type CandidateRepository struct {
	db *sql.DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create inserts a new candidate
func (r *CandidateRepository) Create(candidate *database.Candidate) error {
	query := `INSERT INTO candidates (id, election_id, name, party, ballot_number, active, vote_count, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`

	_, err := r.db.Exec(query,
		candidate.ID, candidate.ElectionID, candidate.Name, candidate.Party,
		candidate.BallotNumber, candidate.Active, candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create candidate: %v", err)
	}

	return nil
}

// GetByID retrieves a candidate by its ID
func (r *CandidateRepository) GetByID(id string) (*database.Candidate, error) {
	query := `SELECT id, election_id, name, party, ballot_number, active, vote_count, created_at, updated_at
	          FROM candidates WHERE id = ?`

	candidate := &database.Candidate{}
	err := r.db.QueryRow(query, id).Scan(
		&candidate.ID, &candidate.ElectionID, &candidate.Name, &candidate.Party,
		&candidate.BallotNumber, &candidate.Active, &candidate.VoteCount,
		&candidate.CreatedAt, &candidate.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %v", err)
	}

	return candidate, nil
}

// ListByElection retrieves all candidates for an election ordered by ballot number
func (r *CandidateRepository) ListByElection(electionID string) ([]*database.Candidate, error) {
	query := `SELECT id, election_id, name, party, ballot_number, active, vote_count, created_at, updated_at
	          FROM candidates WHERE election_id = ? ORDER BY ballot_number ASC`

	rows, err := r.db.Query(query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %v", err)
	}
	defer rows.Close()

	var candidates []*database.Candidate
	for rows.Next() {
		candidate := &database.Candidate{}
		err := rows.Scan(
			&candidate.ID, &candidate.ElectionID, &candidate.Name, &candidate.Party,
			&candidate.BallotNumber, &candidate.Active, &candidate.VoteCount,
			&candidate.CreatedAt, &candidate.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %v", err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rows.Err()
}

// BallotNumberTaken reports whether an active candidate already holds the
// given ballot number in an election.
func (r *CandidateRepository) BallotNumberTaken(electionID string, ballotNumber int) (bool, error) {
	query := `SELECT COUNT(*) FROM candidates WHERE election_id = ? AND ballot_number = ? AND active = 1`

	var count int
	if err := r.db.QueryRow(query, electionID, ballotNumber).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ballot number: %v", err)
	}

	return count > 0, nil
}

// Deactivate marks a candidate as inactive. Vote counts are untouched.
func (r *CandidateRepository) Deactivate(id string, updatedAt time.Time) error {
	query := `UPDATE candidates SET active = 0, updated_at = ? WHERE id = ?`

	result, err := r.db.Exec(query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate candidate: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementVoteCountTx increments a candidate's tally inside a transaction
func (r *CandidateRepository) IncrementVoteCountTx(tx *sql.Tx, id string, updatedAt time.Time) error {
	query := `UPDATE candidates SET vote_count = vote_count + 1, updated_at = ? WHERE id = ?`

	result, err := tx.Exec(query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to increment vote count: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}
