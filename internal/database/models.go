package database

import (
	"time"
)

// Election represents an election row on the ledger. WindowStart and
// WindowEnd are the scheduled voting window; status transitions are
// gated against them.
type Election struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"` // draft, active, completed
	WindowStart time.Time `json:"window_start" db:"window_start"`
	WindowEnd   time.Time `json:"window_end" db:"window_end"`
	TotalVotes  int64     `json:"total_votes" db:"total_votes"`
	MerkleRoot  string    `json:"merkle_root,omitempty" db:"merkle_root"`
	ArchiveRef  string    `json:"archive_ref,omitempty" db:"archive_ref"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Candidate represents a candidate registered for an election
type Candidate struct {
	ID           string    `json:"id" db:"id"`
	ElectionID   string    `json:"election_id" db:"election_id"`
	Name         string    `json:"name" db:"name"`
	Party        string    `json:"party" db:"party"`
	BallotNumber int       `json:"ballot_number" db:"ballot_number"`
	Active       bool      `json:"active" db:"active"`
	VoteCount    int64     `json:"vote_count" db:"vote_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// VoterRecord represents a principal on the global voter roll,
// independent of any single election.
type VoterRecord struct {
	Principal    string    `json:"principal" db:"principal"`
	Eligible     bool      `json:"eligible" db:"eligible"`
	RegisteredBy string    `json:"registered_by" db:"registered_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Vote represents an admitted vote on the ledger. The encrypted
// payload and proof are opaque to the core; only the verified flag is
// mutable after admission, and only by an auditor.
type Vote struct {
	ID               string    `json:"id" db:"id"`
	ElectionID       string    `json:"election_id" db:"election_id"`
	CandidateID      string    `json:"candidate_id" db:"candidate_id"`
	VoterPrincipal   string    `json:"voter_principal" db:"voter_principal"`
	EncryptedPayload []byte    `json:"encrypted_payload,omitempty" db:"encrypted_payload"`
	ZKProof          []byte    `json:"zk_proof,omitempty" db:"zk_proof"`
	Nullifier        string    `json:"nullifier" db:"nullifier"`
	Verified         bool      `json:"verified" db:"verified"`
	CastAt           time.Time `json:"cast_at" db:"cast_at"`
}

// Nullifier represents a consumed nullifier. Uniqueness is global,
// not per election.
type Nullifier struct {
	Value      string    `json:"value" db:"value"`
	ElectionID string    `json:"election_id" db:"election_id"`
	ConsumedAt time.Time `json:"consumed_at" db:"consumed_at"`
}

// AuditLog represents an append-only audit trail entry
type AuditLog struct {
	ID         int64     `json:"id" db:"id"`
	Action     string    `json:"action" db:"action"`
	Actor      string    `json:"actor" db:"actor"`
	ElectionID string    `json:"election_id,omitempty" db:"election_id"`
	Details    string    `json:"details" db:"details"`
	EntryHash  string    `json:"entry_hash" db:"entry_hash"`
	Signature  string    `json:"signature,omitempty" db:"signature"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AuditReport represents an auditor-filed report against an election
type AuditReport struct {
	ID         string     `json:"id" db:"id"`
	ElectionID string     `json:"election_id" db:"election_id"`
	Auditor    string     `json:"auditor" db:"auditor"`
	Summary    string     `json:"summary" db:"summary"`
	Findings   string     `json:"findings" db:"findings"`
	ReportHash string     `json:"report_hash" db:"report_hash"`
	ArchiveRef string     `json:"archive_ref,omitempty" db:"archive_ref"`
	Approved   bool       `json:"approved" db:"approved"`
	ApprovedBy string     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Role represents a capability grant for a principal
type Role struct {
	ID         int64     `json:"id" db:"id"`
	Principal  string    `json:"principal" db:"principal"`
	Capability string    `json:"capability" db:"capability"` // admin, authority, auditor, node
	GrantedBy  string    `json:"granted_by" db:"granted_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
