// Package interfaces defines the service container contract handlers
// and middleware depend on.
package interfaces

import (
	"election-ledger/internal/api/types"
	"election-ledger/internal/ledger"
	"election-ledger/pkg/config"
	"election-ledger/pkg/logger"
)

// Services is the dependency container passed to every handler
type Services interface {
	// Ledger returns the election ledger core
	Ledger() *ledger.Service

	// Config returns the application configuration
	Config() *config.Config

	// Logger returns the application logger
	Logger() *logger.Logger

	// ValidateToken parses and validates a bearer token, returning the
	// claims it carries
	ValidateToken(token string) (*types.TokenClaims, error)

	// IssueToken mints a bearer token for a principal with the given
	// capability names
	IssueToken(principal string, capabilities []string) (string, error)
}
