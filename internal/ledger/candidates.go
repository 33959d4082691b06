package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
)

// RegisterCandidate adds a candidate to a draft or active election.
// Ballot numbers must be unique among the election's active candidates.
func (s *Service) RegisterCandidate(actor Actor, electionID, name, party string, ballotNumber int) (*database.Candidate, error) {
	if err := s.authorize(actor, CapAuthority, "register_candidate", electionID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: candidate name is required", ErrValidation)
	}
	if ballotNumber <= 0 {
		return nil, fmt.Errorf("%w: ballot number must be positive", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status == StatusCompleted {
		return nil, ErrElectionCompleted
	}

	taken, err := s.candidates.BallotNumberTaken(electionID, ballotNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		s.appendAudit("candidate_rejected_duplicate_ballot", actor.Principal, electionID,
			fmt.Sprintf("name=%q ballot_number=%d", name, ballotNumber))
		return nil, ErrDuplicateBallotNumber
	}

	now := s.now()
	candidate := &database.Candidate{
		ID:           uuid.New().String(),
		ElectionID:   electionID,
		Name:         name,
		Party:        party,
		BallotNumber: ballotNumber,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.candidates.Create(candidate); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateBallotNumber
		}
		return nil, err
	}

	s.appendAudit("candidate_registered", actor.Principal, electionID,
		fmt.Sprintf("candidate=%s name=%q ballot_number=%d", candidate.ID, name, ballotNumber))
	s.emit("candidate_registered", electionID, candidate)

	return candidate, nil
}

// DeactivateCandidate withdraws a candidate from the ballot. Votes
// already recorded for the candidate are kept in the tally.
func (s *Service) DeactivateCandidate(actor Actor, electionID, candidateID string) (*database.Candidate, error) {
	if err := s.authorize(actor, CapAuthority, "deactivate_candidate", electionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	election, err := s.getElection(electionID)
	if err != nil {
		return nil, err
	}
	if election.Status == StatusCompleted {
		return nil, ErrElectionCompleted
	}

	candidate, err := s.candidates.GetByID(candidateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	if candidate.ElectionID != electionID {
		return nil, ErrCandidateNotFound
	}

	now := s.now()
	if err := s.candidates.Deactivate(candidateID, now); err != nil {
		return nil, err
	}
	candidate.Active = false
	candidate.UpdatedAt = now

	s.appendAudit("candidate_deactivated", actor.Principal, electionID,
		fmt.Sprintf("candidate=%s name=%q", candidate.ID, candidate.Name))
	s.emit("candidate_deactivated", electionID, candidate)

	return candidate, nil
}

// GetCandidate retrieves a candidate of an election. Read access is public.
func (s *Service) GetCandidate(electionID, candidateID string) (*database.Candidate, error) {
	candidate, err := s.candidates.GetByID(candidateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	if candidate.ElectionID != electionID {
		return nil, ErrCandidateNotFound
	}
	return candidate, nil
}

// ListCandidates retrieves an election's candidates ordered by ballot
// number. Read access is public.
func (s *Service) ListCandidates(electionID string) ([]*database.Candidate, error) {
	if _, err := s.GetElection(electionID); err != nil {
		return nil, err
	}
	return s.candidates.ListByElection(electionID)
}
