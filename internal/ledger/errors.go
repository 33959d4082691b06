package ledger

import "errors"

// Sentinel errors returned by ledger operations. HTTP handlers map
// these onto status codes; callers match with errors.Is.
var (
	// ErrUnauthorized is returned when the actor lacks the capability
	// an operation requires
	ErrUnauthorized = errors.New("actor not authorized for operation")

	// ErrValidation is returned for malformed or missing input fields
	ErrValidation = errors.New("invalid input")

	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrVoterNotFound     = errors.New("voter not registered")
	ErrVoteNotFound      = errors.New("vote not found")
	ErrReportNotFound    = errors.New("audit report not found")

	// ErrElectionNotDraft is returned when a draft-only mutation hits
	// an election that has already been activated
	ErrElectionNotDraft = errors.New("election is not in draft status")

	// ErrElectionCompleted is returned when a mutation targets an
	// election that has been completed and frozen
	ErrElectionCompleted = errors.New("election is completed")

	// ErrWindowNotReached is returned when activation is attempted
	// before the voting window opens
	ErrWindowNotReached = errors.New("voting window has not been reached")

	// ErrWindowNotElapsed is returned when completion is attempted
	// before the voting window closes
	ErrWindowNotElapsed = errors.New("voting window has not elapsed")

	// ErrInvalidState is returned for state machine violations not
	// covered by a more specific error
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrElectionNotActive is returned when a vote targets an election
	// outside its active window
	ErrElectionNotActive = errors.New("election is not active")

	// ErrElectionNotCompleted is returned when a sealed-ledger operation
	// targets an election that has not completed
	ErrElectionNotCompleted = errors.New("election is not completed")

	// ErrInvalidCandidate is returned when a vote names a candidate
	// that is missing, inactive, or registered to a different election
	ErrInvalidCandidate = errors.New("candidate is not valid for this election")

	// ErrVoterNotEligible is returned when the voter is unregistered
	// or marked ineligible
	ErrVoterNotEligible = errors.New("voter is not eligible")

	// ErrAlreadyVoted is returned when the voter has already cast a
	// vote in this election
	ErrAlreadyVoted = errors.New("voter has already cast a vote")

	// ErrNullifierReused is returned when the nullifier was consumed
	// before, by any election
	ErrNullifierReused = errors.New("nullifier has already been used")

	// ErrInvalidNullifier is returned when the nullifier is not a
	// 64-character hex string
	ErrInvalidNullifier = errors.New("nullifier format is invalid")

	// ErrDuplicateBallotNumber is returned when a candidate registration
	// reuses a ballot number held by an active candidate
	ErrDuplicateBallotNumber = errors.New("ballot number already taken")

	// ErrVoterAlreadyRegistered is returned when a principal is
	// already on the voter roll
	ErrVoterAlreadyRegistered = errors.New("voter already registered")

	// ErrReportAlreadyApproved is returned on a second approval of the
	// same audit report
	ErrReportAlreadyApproved = errors.New("audit report already approved")
)
