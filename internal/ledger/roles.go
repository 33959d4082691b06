package ledger

import (
	"errors"
	"fmt"

	"election-ledger/internal/database"
	"election-ledger/internal/database/repositories"
)

// GrantRole grants a capability to a principal. Granting an already
// held capability is a no-op.
func (s *Service) GrantRole(actor Actor, principal, capability string) (*database.Role, error) {
	if err := s.authorize(actor, CapAdmin, "grant_role", ""); err != nil {
		return nil, err
	}
	if principal == "" {
		return nil, fmt.Errorf("%w: principal is required", ErrValidation)
	}
	cap, err := ParseCapability(capability)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role := &database.Role{
		Principal:  principal,
		Capability: string(cap),
		GrantedBy:  actor.Principal,
		CreatedAt:  s.now(),
	}
	if err := s.roles.Grant(role); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return role, nil
		}
		return nil, err
	}

	s.appendAudit("role_granted", actor.Principal, "",
		fmt.Sprintf("principal=%s capability=%s", principal, cap))

	return role, nil
}

// RevokeRole removes a capability from a principal
func (s *Service) RevokeRole(actor Actor, principal, capability string) error {
	if err := s.authorize(actor, CapAdmin, "revoke_role", ""); err != nil {
		return err
	}
	cap, err := ParseCapability(capability)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.roles.Revoke(principal, string(cap)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s does not hold %s", ErrValidation, principal, cap)
		}
		return err
	}

	s.appendAudit("role_revoked", actor.Principal, "",
		fmt.Sprintf("principal=%s capability=%s", principal, cap))

	return nil
}

// ListRoles returns every capability grant on record
func (s *Service) ListRoles(actor Actor) ([]*database.Role, error) {
	if err := s.authorize(actor, CapAdmin, "list_roles", ""); err != nil {
		return nil, err
	}

	return s.roles.ListAll()
}

// ResolveCapabilities merges capabilities from the roles table into a
// set, used by transport middleware alongside token claims.
func (s *Service) ResolveCapabilities(principal string) (CapabilitySet, error) {
	names, err := s.roles.Capabilities(principal)
	if err != nil {
		return nil, err
	}
	return NewCapabilitySet(names...), nil
}
