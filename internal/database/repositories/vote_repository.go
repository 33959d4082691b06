package repositories

import (
	"database/sql"
	"fmt"

	"election-ledger/internal/database"
)

// VoteRepository handles vote and nullifier persistence
type VoteRepository struct {
	db *sql.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

const voteColumns = `id, election_id, candidate_id, voter_principal, encrypted_payload, zk_proof, nullifier, verified, cast_at`

func scanVote(row interface{ Scan(...interface{}) error }) (*database.Vote, error) {
	vote := &database.Vote{}
	err := row.Scan(
		&vote.ID, &vote.ElectionID, &vote.CandidateID, &vote.VoterPrincipal,
		&vote.EncryptedPayload, &vote.ZKProof, &vote.Nullifier,
		&vote.Verified, &vote.CastAt)
	return vote, err
}

// InsertTx appends a vote to the ledger inside a transaction
func (r *VoteRepository) InsertTx(tx *sql.Tx, vote *database.Vote) error {
	query := `INSERT INTO votes (id, election_id, candidate_id, voter_principal, encrypted_payload, zk_proof, nullifier, verified, cast_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`

	_, err := tx.Exec(query,
		vote.ID, vote.ElectionID, vote.CandidateID, vote.VoterPrincipal,
		vote.EncryptedPayload, vote.ZKProof, vote.Nullifier, vote.CastAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert vote: %v", err)
	}

	return nil
}

// ConsumeNullifierTx records a nullifier as spent inside a transaction.
// The primary key on value enforces global uniqueness.
func (r *VoteRepository) ConsumeNullifierTx(tx *sql.Tx, nullifier *database.Nullifier) error {
	query := `INSERT INTO nullifiers (value, election_id, consumed_at) VALUES (?, ?, ?)`

	_, err := tx.Exec(query, nullifier.Value, nullifier.ElectionID, nullifier.ConsumedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to consume nullifier: %v", err)
	}

	return nil
}

// NullifierExists reports whether a nullifier has already been consumed
// by any election.
func (r *VoteRepository) NullifierExists(value string) (bool, error) {
	query := `SELECT COUNT(*) FROM nullifiers WHERE value = ?`

	var count int
	if err := r.db.QueryRow(query, value).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check nullifier: %v", err)
	}

	return count > 0, nil
}

// HasVoted reports whether a voter already holds a vote in an election
func (r *VoteRepository) HasVoted(electionID, principal string) (bool, error) {
	query := `SELECT COUNT(*) FROM votes WHERE election_id = ? AND voter_principal = ?`

	var count int
	if err := r.db.QueryRow(query, electionID, principal).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check voter: %v", err)
	}

	return count > 0, nil
}

// GetByID retrieves a single vote by its ID
func (r *VoteRepository) GetByID(id string) (*database.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM votes WHERE id = ?`

	vote, err := scanVote(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %v", err)
	}

	return vote, nil
}

// ListByElection retrieves votes for an election in ledger append order
func (r *VoteRepository) ListByElection(electionID string) ([]*database.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM votes WHERE election_id = ? ORDER BY cast_at ASC, id ASC`

	rows, err := r.db.Query(query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %v", err)
	}
	defer rows.Close()

	var votes []*database.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %v", err)
		}
		votes = append(votes, vote)
	}

	return votes, rows.Err()
}

// MarkVerified sets a vote's verified flag. The only mutation a vote
// row ever receives.
func (r *VoteRepository) MarkVerified(id string) error {
	query := `UPDATE votes SET verified = 1 WHERE id = ?`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to mark vote verified: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// CountByElection returns the number of votes recorded for an election
func (r *VoteRepository) CountByElection(electionID string) (int64, error) {
	query := `SELECT COUNT(*) FROM votes WHERE election_id = ?`

	var count int64
	if err := r.db.QueryRow(query, electionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %v", err)
	}

	return count, nil
}
