package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
	"election-ledger/internal/merkle"
)

// nullifierPattern matches a well-formed nullifier: 64 lowercase hex
// characters. Values are lowercased before matching.
var nullifierPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// CastVoteRequest carries everything needed to admit a vote
type CastVoteRequest struct {
	ElectionID       string
	CandidateID      string
	VoterPrincipal   string
	Nullifier        string
	EncryptedPayload []byte
	ZKProof          []byte
}

// CastVote admits a vote into the ledger. Admission checks run in a
// fixed order: the election must be active with the current time
// inside its voting window, the candidate must be an active candidate
// of that election, the voter must be on the roll and eligible, the
// voter must not have already voted in this election, the nullifier
// must be unspent across all elections, and finally the nullifier
// must be well formed. Rejections are written to the audit log with
// the reason; the vote record, nullifier consumption, and tally
// increments commit in a single transaction.
func (s *Service) CastVote(actor Actor, req CastVoteRequest) (*database.Vote, error) {
	if err := s.authorize(actor, CapNode, "cast_vote", req.ElectionID); err != nil {
		return nil, err
	}
	if req.VoterPrincipal == "" {
		return nil, fmt.Errorf("%w: voter principal is required", ErrValidation)
	}
	if len(req.ZKProof) == 0 {
		return nil, fmt.Errorf("%w: zk proof is required", ErrValidation)
	}

	nullifier := strings.ToLower(req.Nullifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(req.ElectionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if election.Status != StatusActive || now.Before(election.WindowStart) || now.After(election.WindowEnd) {
		return nil, s.rejectVote(actor, req, "election_not_active", ErrElectionNotActive)
	}

	candidate, err := s.candidates.GetByID(req.CandidateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, s.rejectVote(actor, req, "invalid_candidate", ErrInvalidCandidate)
	}
	if err != nil {
		return nil, err
	}
	if candidate.ElectionID != req.ElectionID || !candidate.Active {
		return nil, s.rejectVote(actor, req, "invalid_candidate", ErrInvalidCandidate)
	}

	eligible, err := s.IsEligible(req.VoterPrincipal)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, s.rejectVote(actor, req, "not_eligible", ErrVoterNotEligible)
	}

	voted, err := s.votes.HasVoted(req.ElectionID, req.VoterPrincipal)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, s.rejectVote(actor, req, "already_voted", ErrAlreadyVoted)
	}

	spent, err := s.votes.NullifierExists(nullifier)
	if err != nil {
		return nil, err
	}
	if spent {
		return nil, s.rejectVote(actor, req, "nullifier_reused", ErrNullifierReused)
	}

	if !nullifierPattern.MatchString(nullifier) {
		return nil, s.rejectVote(actor, req, "invalid_nullifier", ErrInvalidNullifier)
	}

	vote := &database.Vote{
		ID:               uuid.New().String(),
		ElectionID:       req.ElectionID,
		CandidateID:      req.CandidateID,
		VoterPrincipal:   req.VoterPrincipal,
		EncryptedPayload: req.EncryptedPayload,
		ZKProof:          req.ZKProof,
		Nullifier:        nullifier,
		CastAt:           now,
	}
	entry := s.buildAuditEntry("vote_cast", actor.Principal, req.ElectionID,
		fmt.Sprintf("vote=%s candidate=%s", vote.ID, req.CandidateID))
	if err := s.admitVoteTx(vote, entry); err != nil {
		// Unique constraints backstop the checks above against
		// concurrent writers outside this process.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, s.rejectVote(actor, req, "already_voted", ErrAlreadyVoted)
		}
		return nil, err
	}

	s.log.AuditLogger("vote_cast", actor.Principal, entry.Details)
	s.emit("vote_cast", req.ElectionID, map[string]interface{}{
		"vote_id":      vote.ID,
		"candidate_id": req.CandidateID,
	})

	return vote, nil
}

// admitVoteTx records the vote, consumes its nullifier, bumps the
// candidate and election tallies, and appends the audit entry in one
// transaction.
func (s *Service) admitVoteTx(vote *database.Vote, entry *database.AuditLog) error {
	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if err := s.votes.InsertTx(tx, vote); err != nil {
		return err
	}
	if err := s.votes.ConsumeNullifierTx(tx, &database.Nullifier{
		Value:      vote.Nullifier,
		ElectionID: vote.ElectionID,
		ConsumedAt: vote.CastAt,
	}); err != nil {
		return err
	}
	if err := s.candidates.IncrementVoteCountTx(tx, vote.CandidateID, vote.CastAt); err != nil {
		return err
	}
	if err := s.elections.IncrementTotalVotesTx(tx, vote.ElectionID, vote.CastAt); err != nil {
		return err
	}
	if err := s.audit.AppendLogTx(tx, entry); err != nil {
		return err
	}

	committed := tx
	tx = nil
	return committed.Commit()
}

// rejectVote audits a rejected admission attempt and passes the
// rejection error through.
func (s *Service) rejectVote(actor Actor, req CastVoteRequest, reason string, cause error) error {
	s.appendAudit("vote_rejected_"+reason, actor.Principal, req.ElectionID,
		fmt.Sprintf("voter=%s candidate=%s", req.VoterPrincipal, req.CandidateID))
	return cause
}

// GetVote retrieves a recorded vote. Auditor access.
func (s *Service) GetVote(actor Actor, electionID, voteID string) (*database.Vote, error) {
	if err := s.authorize(actor, CapAuditor, "get_vote", electionID); err != nil {
		return nil, err
	}
	vote, err := s.votes.GetByID(voteID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	if vote.ElectionID != electionID {
		return nil, ErrVoteNotFound
	}
	return vote, nil
}

// ListVotes retrieves an election's votes in admission order. Auditor access.
func (s *Service) ListVotes(actor Actor, electionID string) ([]*database.Vote, error) {
	if err := s.authorize(actor, CapAuditor, "list_votes", electionID); err != nil {
		return nil, err
	}
	if _, err := s.GetElection(electionID); err != nil {
		return nil, err
	}
	return s.votes.ListByElection(electionID)
}

// VerifyVote marks a vote's proof as checked by an auditor
func (s *Service) VerifyVote(actor Actor, electionID, voteID string) (*database.Vote, error) {
	if err := s.authorize(actor, CapAuditor, "verify_vote", electionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vote, err := s.votes.GetByID(voteID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	if vote.ElectionID != electionID {
		return nil, ErrVoteNotFound
	}

	if err := s.votes.MarkVerified(voteID); err != nil {
		return nil, err
	}
	vote.Verified = true

	s.appendAudit("vote_verified", actor.Principal, electionID,
		fmt.Sprintf("vote=%s", voteID))

	return vote, nil
}

// VoteProof is a Merkle inclusion proof for a single vote against a
// completed election's sealed root.
type VoteProof struct {
	VoteID     string   `json:"vote_id"`
	ElectionID string   `json:"election_id"`
	LeafHash   string   `json:"leaf_hash"`
	Proof      []string `json:"proof"`
	Root       string   `json:"root"`
}

// ProveVote builds an inclusion proof for a vote in a completed
// election. Auditor access; the proof itself is publicly verifiable.
func (s *Service) ProveVote(actor Actor, electionID, voteID string) (*VoteProof, error) {
	if err := s.authorize(actor, CapAuditor, "prove_vote", electionID); err != nil {
		return nil, err
	}

	election, err := s.GetElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != StatusCompleted {
		return nil, ErrElectionNotCompleted
	}

	votes, err := s.votes.ListByElection(electionID)
	if err != nil {
		return nil, err
	}
	leaves := make([][]byte, len(votes))
	var leaf []byte
	found := false
	for i, v := range votes {
		leaves[i] = voteLeaf(v)
		if v.ID == voteID {
			leaf = leaves[i]
			found = true
		}
	}
	if !found {
		return nil, ErrVoteNotFound
	}

	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}
	proof, err := tree.ProofForLeaf(leaf)
	if err != nil {
		return nil, err
	}

	out := &VoteProof{
		VoteID:     voteID,
		ElectionID: electionID,
		LeafHash:   hex.EncodeToString(leaf),
		Proof:      make([]string, len(proof)),
		Root:       tree.RootHex(),
	}
	for i, p := range proof {
		out.Proof[i] = hex.EncodeToString(p)
	}
	return out, nil
}

// VerifyProof checks a Merkle inclusion proof against an election's
// sealed root. No authorization is required; anyone holding a proof
// can verify it.
func (s *Service) VerifyProof(electionID, leafHex string, proofHex []string) (bool, error) {
	election, err := s.GetElection(electionID)
	if err != nil {
		return false, err
	}
	if election.Status != StatusCompleted {
		return false, ErrElectionNotCompleted
	}
	if election.MerkleRoot == "" {
		return false, nil
	}
	ok, err := merkle.VerifyHex(leafHex, proofHex, election.MerkleRoot)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return ok, nil
}

// voteLeaf serializes a vote into its canonical leaf preimage. The
// encrypted payload and proof blobs enter as digests so leaves stay
// fixed-size.
func voteLeaf(v *database.Vote) []byte {
	payload := sha256.Sum256(v.EncryptedPayload)
	zkProof := sha256.Sum256(v.ZKProof)
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		v.ID, v.ElectionID, v.CandidateID, v.VoterPrincipal, v.Nullifier,
		hex.EncodeToString(payload[:]), hex.EncodeToString(zkProof[:]))
	return merkle.HashLeaf([]byte(data))
}
