package ledger

import "fmt"

// Capability names a privilege class a principal may hold
type Capability string

const (
	// CapAdmin satisfies every capability check
	CapAdmin Capability = "admin"

	// CapAuthority manages election lifecycle, candidates, and voter rolls
	CapAuthority Capability = "authority"

	// CapAuditor reads the audit trail and files audit reports
	CapAuditor Capability = "auditor"

	// CapNode submits votes to the ledger
	CapNode Capability = "node"
)

// ParseCapability validates a capability name
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapAdmin, CapAuthority, CapAuditor, CapNode:
		return Capability(s), nil
	default:
		return "", fmt.Errorf("%w: unknown capability %q", ErrValidation, s)
	}
}

// CapabilitySet holds the capabilities resolved for a principal
type CapabilitySet map[Capability]bool

// NewCapabilitySet builds a set from capability names, skipping
// unknown entries.
func NewCapabilitySet(names ...string) CapabilitySet {
	set := make(CapabilitySet, len(names))
	for _, name := range names {
		if cap, err := ParseCapability(name); err == nil {
			set[cap] = true
		}
	}
	return set
}

// Has reports whether the set satisfies the required capability.
// Admin satisfies everything.
func (s CapabilitySet) Has(required Capability) bool {
	return s[CapAdmin] || s[required]
}

// Names returns the capability names in the set
func (s CapabilitySet) Names() []string {
	names := make([]string, 0, len(s))
	for _, cap := range []Capability{CapAdmin, CapAuthority, CapAuditor, CapNode} {
		if s[cap] {
			names = append(names, string(cap))
		}
	}
	return names
}

// Actor identifies the principal performing an operation together with
// its resolved capabilities.
type Actor struct {
	Principal    string
	Capabilities CapabilitySet
}

// authorize checks the actor against a required capability. Refusals
// are recorded on the audit trail before the error is returned.
func (s *Service) authorize(actor Actor, required Capability, action, electionID string) error {
	if actor.Capabilities.Has(required) {
		return nil
	}

	s.appendAudit("access_denied", actor.Principal, electionID,
		fmt.Sprintf("operation=%s required=%s", action, required))
	s.log.SecurityLogger("access_denied", actor.Principal,
		fmt.Sprintf("operation=%s required=%s", action, required))

	return fmt.Errorf("%w: %s requires %s", ErrUnauthorized, action, required)
}
