package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
	"election-ledger/internal/merkle"
)

// Election status values. Transitions are monotonic:
// draft -> active -> completed.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// CreateElection creates a new election in draft status with a
// scheduled voting window. The window must open in the future and
// close after it opens.
func (s *Service) CreateElection(actor Actor, name, description string, windowStart, windowEnd time.Time) (*database.Election, error) {
	if err := s.authorize(actor, CapAuthority, "create_election", ""); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: election name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !windowStart.After(now) {
		return nil, fmt.Errorf("%w: window start must be in the future", ErrValidation)
	}
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("%w: window end must be after window start", ErrValidation)
	}

	election := &database.Election{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Status:      StatusDraft,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		CreatedBy:   actor.Principal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.elections.Create(election); err != nil {
		return nil, err
	}

	s.appendAudit("election_created", actor.Principal, election.ID,
		fmt.Sprintf("name=%q window=[%s, %s]", name,
			windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)))
	s.emit("election_created", election.ID, election)

	return election, nil
}

// UpdateElection updates the name and description of a draft election.
// Activated elections are immutable apart from their lifecycle fields.
func (s *Service) UpdateElection(actor Actor, electionID, name, description string) (*database.Election, error) {
	if err := s.authorize(actor, CapAuthority, "update_election", electionID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: election name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != StatusDraft {
		return nil, ErrElectionNotDraft
	}

	now := s.now()
	if err := s.elections.UpdateDraft(electionID, name, description, now); err != nil {
		return nil, err
	}
	election.Name = name
	election.Description = description
	election.UpdatedAt = now

	s.appendAudit("election_updated", actor.Principal, electionID,
		fmt.Sprintf("name=%q", name))

	return election, nil
}

// ActivateElection transitions a draft election to active, opening it
// for votes. The current time must fall inside the scheduled window.
// An empty ballot does not block activation; candidates may still be
// registered while the election is active.
func (s *Service) ActivateElection(actor Actor, electionID string) (*database.Election, error) {
	if err := s.authorize(actor, CapAuthority, "activate_election", electionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != StatusDraft {
		return nil, ErrElectionNotDraft
	}

	now := s.now()
	if now.Before(election.WindowStart) {
		return nil, ErrWindowNotReached
	}
	if now.After(election.WindowEnd) {
		return nil, fmt.Errorf("%w: voting window has passed", ErrInvalidState)
	}

	entry := s.buildAuditEntry("election_activated", actor.Principal, electionID,
		fmt.Sprintf("name=%q", election.Name))
	if err := s.transitionTx(entry, func(tx *sql.Tx) error {
		return s.elections.MarkActiveTx(tx, electionID, now)
	}); err != nil {
		return nil, err
	}
	election.Status = StatusActive
	election.UpdatedAt = now

	s.log.AuditLogger(entry.Action, actor.Principal, entry.Details)
	s.emit("election_activated", electionID, election)

	return election, nil
}

// transitionTx applies a status transition and its audit entry in one
// transaction so the trail never disagrees with the election state.
func (s *Service) transitionTx(entry *database.AuditLog, mark func(tx *sql.Tx) error) error {
	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if err := mark(tx); err != nil {
		return err
	}
	if err := s.audit.AppendLogTx(tx, entry); err != nil {
		return err
	}

	committed := tx
	tx = nil
	return committed.Commit()
}

// CompleteElection transitions an active election to completed once
// its window has elapsed, sealing the ledger under a Merkle root. An
// election with no votes is sealed with an empty root. archiveRef is
// an optional pointer to an externally archived copy of the dataset.
func (s *Service) CompleteElection(actor Actor, electionID, archiveRef string) (*database.Election, error) {
	if err := s.authorize(actor, CapAuthority, "complete_election", electionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != StatusActive {
		return nil, ErrElectionNotActive
	}

	now := s.now()
	if now.Before(election.WindowEnd) {
		return nil, ErrWindowNotElapsed
	}

	votes, err := s.votes.ListByElection(electionID)
	if err != nil {
		return nil, err
	}

	root := ""
	if len(votes) > 0 {
		leaves := make([][]byte, len(votes))
		for i, v := range votes {
			leaves[i] = voteLeaf(v)
		}
		tree, err := merkle.New(leaves)
		if err != nil {
			return nil, err
		}
		root = tree.RootHex()
	}

	entry := s.buildAuditEntry("election_completed", actor.Principal, electionID,
		fmt.Sprintf("votes=%d root=%s", len(votes), root))
	if err := s.transitionTx(entry, func(tx *sql.Tx) error {
		return s.elections.MarkCompletedTx(tx, electionID, root, archiveRef, now)
	}); err != nil {
		return nil, err
	}
	election.Status = StatusCompleted
	election.MerkleRoot = root
	election.ArchiveRef = archiveRef
	election.UpdatedAt = now

	s.log.AuditLogger(entry.Action, actor.Principal, entry.Details)
	s.emit("election_completed", electionID, election)

	return election, nil
}

// GetElection retrieves an election by ID. Read access is public.
func (s *Service) GetElection(electionID string) (*database.Election, error) {
	election, err := s.elections.GetByID(electionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	return election, err
}

// ListElections retrieves elections, optionally filtered by status
func (s *Service) ListElections(status string) ([]*database.Election, error) {
	if status != "" && status != StatusDraft && status != StatusActive && status != StatusCompleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.elections.List(status)
}

// CandidateTally is a per-candidate slice of an election's results
type CandidateTally struct {
	CandidateID  string `json:"candidate_id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	BallotNumber int    `json:"ballot_number"`
	Active       bool   `json:"active"`
	VoteCount    int64  `json:"vote_count"`
}

// ElectionStats summarizes an election's participation and results
type ElectionStats struct {
	ElectionID       string           `json:"election_id"`
	Status           string           `json:"status"`
	TotalVotes       int64            `json:"total_votes"`
	RegisteredVoters int64            `json:"registered_voters"`
	EligibleVoters   int64            `json:"eligible_voters"`
	TurnoutPercent   float64          `json:"turnout_percent"`
	MerkleRoot       string           `json:"merkle_root,omitempty"`
	Tallies          []CandidateTally `json:"tallies"`
}

// Stats computes per-candidate tallies and turnout for an election.
// Turnout is measured against the eligible portion of the global
// voter roll. Read access is public.
func (s *Service) Stats(electionID string) (*ElectionStats, error) {
	election, err := s.GetElection(electionID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates.ListByElection(electionID)
	if err != nil {
		return nil, err
	}
	registered, eligible, err := s.voters.Count()
	if err != nil {
		return nil, err
	}
	// Count the recorded votes rather than trusting the cached counter
	voted, err := s.votes.CountByElection(electionID)
	if err != nil {
		return nil, err
	}

	stats := &ElectionStats{
		ElectionID:       election.ID,
		Status:           election.Status,
		TotalVotes:       voted,
		RegisteredVoters: registered,
		EligibleVoters:   eligible,
		MerkleRoot:       election.MerkleRoot,
		Tallies:          make([]CandidateTally, 0, len(candidates)),
	}
	if eligible > 0 {
		stats.TurnoutPercent = float64(voted) / float64(eligible) * 100
	}
	for _, c := range candidates {
		stats.Tallies = append(stats.Tallies, CandidateTally{
			CandidateID:  c.ID,
			Name:         c.Name,
			Party:        c.Party,
			BallotNumber: c.BallotNumber,
			Active:       c.Active,
			VoteCount:    c.VoteCount,
		})
	}

	return stats, nil
}

// getElection fetches an election while holding the service mutex
func (s *Service) getElection(electionID string) (*database.Election, error) {
	election, err := s.elections.GetByID(electionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	return election, err
}
