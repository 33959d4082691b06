// Package ledger implements the election ledger core: election
// lifecycle, candidate and voter registries, vote admission, and the
// append-only audit trail.
package ledger

import (
	"crypto/ecdsa"
	"database/sql"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"election-ledger/internal/database/repositories"
	"election-ledger/pkg/logger"
)

// Event is emitted after a successful ledger mutation so transports
// can stream updates to subscribers.
type Event struct {
	Type       string      `json:"type"`
	ElectionID string      `json:"election_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Service coordinates all ledger operations. Mutations are serialized
// by a single mutex so precondition checks and their transactions
// cannot interleave.
type Service struct {
	mu sync.Mutex

	db         *sql.DB
	elections  *repositories.ElectionRepository
	candidates *repositories.CandidateRepository
	voters     *repositories.VoterRepository
	votes      *repositories.VoteRepository
	audit      *repositories.AuditRepository
	roles      *repositories.RoleRepository

	log    *logger.Logger
	signer *ecdsa.PrivateKey

	now     func() time.Time
	onEvent func(Event)
}

// New creates a ledger service over an already-migrated database.
// signingKey may be empty; audit entries are then stored unsigned.
func New(db *sql.DB, log *logger.Logger, signingKey string) (*Service, error) {
	s := &Service{
		db:         db,
		elections:  repositories.NewElectionRepository(db),
		candidates: repositories.NewCandidateRepository(db),
		voters:     repositories.NewVoterRepository(db),
		votes:      repositories.NewVoteRepository(db),
		audit:      repositories.NewAuditRepository(db),
		roles:      repositories.NewRoleRepository(db),
		log:        log.WithComponent("ledger"),
		now:        time.Now,
	}

	if signingKey != "" {
		key, err := crypto.HexToECDSA(signingKey)
		if err != nil {
			return nil, err
		}
		s.signer = key
	}

	return s, nil
}

// OnEvent registers a callback invoked after successful mutations.
// The callback runs on the mutating goroutine and must not block.
func (s *Service) OnEvent(fn func(Event)) {
	s.onEvent = fn
}

// SetClock overrides the service clock. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Roles exposes the role repository for capability resolution in
// transport middleware.
func (s *Service) Roles() *repositories.RoleRepository {
	return s.roles
}

func (s *Service) emit(eventType, electionID string, data interface{}) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(Event{
		Type:       eventType,
		ElectionID: electionID,
		Data:       data,
		Timestamp:  s.now(),
	})
}

// begin opens a transaction for a multi-row mutation
func (s *Service) begin() (*sql.Tx, error) {
	return s.db.Begin()
}
