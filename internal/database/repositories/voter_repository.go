package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"election-ledger/internal/database"
)

// VoterRepository handles the global voter roll. Voter records are
// independent of any single election.
type VoterRepository struct {
	db *sql.DB
}

// NewVoterRepository creates a new voter repository
func NewVoterRepository(db *sql.DB) *VoterRepository {
	return &VoterRepository{db: db}
}

// Register adds a principal to the voter roll
func (r *VoterRepository) Register(voter *database.VoterRecord) error {
	query := `INSERT INTO voters (principal, eligible, registered_by, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		voter.Principal, voter.Eligible, voter.RegisteredBy, voter.CreatedAt, voter.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to register voter: %v", err)
	}

	return nil
}

// Get retrieves a voter record by principal
func (r *VoterRepository) Get(principal string) (*database.VoterRecord, error) {
	query := `SELECT principal, eligible, registered_by, created_at, updated_at
	          FROM voters WHERE principal = ?`

	voter := &database.VoterRecord{}
	err := r.db.QueryRow(query, principal).Scan(
		&voter.Principal, &voter.Eligible, &voter.RegisteredBy,
		&voter.CreatedAt, &voter.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voter: %v", err)
	}

	return voter, nil
}

// List retrieves the full voter roll
func (r *VoterRepository) List() ([]*database.VoterRecord, error) {
	query := `SELECT principal, eligible, registered_by, created_at, updated_at
	          FROM voters ORDER BY principal ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list voters: %v", err)
	}
	defer rows.Close()

	var voters []*database.VoterRecord
	for rows.Next() {
		voter := &database.VoterRecord{}
		err := rows.Scan(
			&voter.Principal, &voter.Eligible, &voter.RegisteredBy,
			&voter.CreatedAt, &voter.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voter: %v", err)
		}
		voters = append(voters, voter)
	}

	return voters, rows.Err()
}

// SetEligibility updates a voter's eligibility flag
func (r *VoterRepository) SetEligibility(principal string, eligible bool, updatedAt time.Time) error {
	query := `UPDATE voters SET eligible = ?, updated_at = ? WHERE principal = ?`

	result, err := r.db.Exec(query, eligible, updatedAt, principal)
	if err != nil {
		return fmt.Errorf("failed to update voter eligibility: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the size of the roll and how many voters are eligible
func (r *VoterRepository) Count() (registered, eligible int64, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN eligible THEN 1 ELSE 0 END), 0) FROM voters`

	if err := r.db.QueryRow(query).Scan(&registered, &eligible); err != nil {
		return 0, 0, fmt.Errorf("failed to count voters: %v", err)
	}

	return registered, eligible, nil
}
