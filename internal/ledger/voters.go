package ledger

import (
	"errors"
	"fmt"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
)

// RegisterVoter adds a principal to the global voter roll. A voter is
// registered once and may then participate in any election while
// eligible. Re-registering an existing principal is rejected.
func (s *Service) RegisterVoter(actor Actor, principal string) (*database.VoterRecord, error) {
	if err := s.authorize(actor, CapAuthority, "register_voter", ""); err != nil {
		return nil, err
	}
	if principal == "" {
		return nil, fmt.Errorf("%w: voter principal is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	voter := &database.VoterRecord{
		Principal:    principal,
		Eligible:     true,
		RegisteredBy: actor.Principal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.voters.Register(voter); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrVoterAlreadyRegistered
		}
		return nil, err
	}

	s.appendAudit("voter_registered", actor.Principal, "",
		fmt.Sprintf("voter=%s", principal))

	return voter, nil
}

// RemoveVoter strikes a principal from the roll by marking it
// ineligible. The record itself is retained so votes already cast
// remain attributable.
func (s *Service) RemoveVoter(actor Actor, principal string) error {
	if err := s.authorize(actor, CapAuthority, "remove_voter", ""); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getVoter(principal); err != nil {
		return err
	}
	if err := s.voters.SetEligibility(principal, false, s.now()); err != nil {
		return err
	}

	s.appendAudit("voter_removed", actor.Principal, "",
		fmt.Sprintf("voter=%s", principal))

	return nil
}

// SetVoterEligibility flips a registered voter's eligibility flag
func (s *Service) SetVoterEligibility(actor Actor, principal string, eligible bool) (*database.VoterRecord, error) {
	if err := s.authorize(actor, CapAuthority, "set_voter_eligibility", ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	voter, err := s.getVoter(principal)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.voters.SetEligibility(principal, eligible, now); err != nil {
		return nil, err
	}
	voter.Eligible = eligible
	voter.UpdatedAt = now

	s.appendAudit("voter_eligibility_changed", actor.Principal, "",
		fmt.Sprintf("voter=%s eligible=%t", principal, eligible))

	return voter, nil
}

// GetVoter retrieves a voter record from the roll
func (s *Service) GetVoter(actor Actor, principal string) (*database.VoterRecord, error) {
	if err := s.authorize(actor, CapAuthority, "get_voter", ""); err != nil {
		return nil, err
	}
	return s.getVoter(principal)
}

// ListVoters retrieves the full voter roll
func (s *Service) ListVoters(actor Actor) ([]*database.VoterRecord, error) {
	if err := s.authorize(actor, CapAuthority, "list_voters", ""); err != nil {
		return nil, err
	}
	return s.voters.List()
}

// IsEligible reports whether a principal is on the roll and eligible
func (s *Service) IsEligible(principal string) (bool, error) {
	voter, err := s.voters.Get(principal)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return voter.Eligible, nil
}

func (s *Service) getVoter(principal string) (*database.VoterRecord, error) {
	voter, err := s.voters.Get(principal)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrVoterNotFound
	}
	return voter, err
}
