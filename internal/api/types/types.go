// Package types defines the request and response envelopes shared by
// all API handlers.
package types

import "time"

// ErrorResponse is the envelope for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse is the envelope for successful requests
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// TokenClaims carries the identity resolved from a bearer token
type TokenClaims struct {
	Principal    string   `json:"principal"`
	Capabilities []string `json:"capabilities"`
}

// CreateElectionRequest creates a new draft election with its
// scheduled voting window
type CreateElectionRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	WindowStart time.Time `json:"window_start" binding:"required"`
	WindowEnd   time.Time `json:"window_end" binding:"required"`
}

// UpdateElectionRequest renames a draft election
type UpdateElectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CompleteElectionRequest closes an active election, optionally
// recording an external archive reference
type CompleteElectionRequest struct {
	ArchiveRef string `json:"archive_ref"`
}

// RegisterCandidateRequest adds a candidate to an election's ballot
type RegisterCandidateRequest struct {
	Name         string `json:"name" binding:"required"`
	Party        string `json:"party"`
	BallotNumber int    `json:"ballot_number" binding:"required"`
}

// RegisterVoterRequest adds a principal to the voter roll
type RegisterVoterRequest struct {
	Principal string `json:"principal" binding:"required"`
}

// VoterEligibilityRequest flips a voter's eligibility flag
type VoterEligibilityRequest struct {
	Eligible *bool `json:"eligible" binding:"required"`
}

// CastVoteRequest submits a vote to the ledger. The payload and proof
// blobs are base64-encoded on the wire.
type CastVoteRequest struct {
	CandidateID      string `json:"candidate_id" binding:"required"`
	VoterPrincipal   string `json:"voter_principal" binding:"required"`
	Nullifier        string `json:"nullifier" binding:"required"`
	EncryptedPayload []byte `json:"encrypted_payload"`
	ZKProof          []byte `json:"zk_proof" binding:"required"`
}

// AppendAuditEntryRequest records a collaborator observation on the
// audit trail
type AppendAuditEntryRequest struct {
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
	ElectionID  string `json:"election_id"`
	DataHash    string `json:"data_hash"`
}

// FileReportRequest files an auditor report against a completed election
type FileReportRequest struct {
	Summary    string `json:"summary" binding:"required"`
	Findings   string `json:"findings"`
	ArchiveRef string `json:"archive_ref"`
}

// RoleRequest grants or revokes a capability
type RoleRequest struct {
	Principal  string `json:"principal" binding:"required"`
	Capability string `json:"capability" binding:"required"`
}

// VerifyProofRequest replays an inclusion proof against a sealed root
type VerifyProofRequest struct {
	ElectionID string   `json:"election_id" binding:"required"`
	LeafHash   string   `json:"leaf_hash" binding:"required"`
	Proof      []string `json:"proof"`
}
