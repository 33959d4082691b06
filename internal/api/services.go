package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/types"
	"election-ledger/internal/ledger"
	"election-ledger/pkg/config"
	"election-ledger/pkg/logger"
)

// ServiceContainer implements interfaces.Services
type ServiceContainer struct {
	ledger *ledger.Service
	config *config.Config
	logger *logger.Logger
}

// NewServiceContainer creates the dependency container handlers receive
func NewServiceContainer(svc *ledger.Service, cfg *config.Config, log *logger.Logger) interfaces.Services {
	return &ServiceContainer{
		ledger: svc,
		config: cfg,
		logger: log,
	}
}

// Ledger returns the election ledger core
func (s *ServiceContainer) Ledger() *ledger.Service {
	return s.ledger
}

// Config returns the application configuration
func (s *ServiceContainer) Config() *config.Config {
	return s.config
}

// Logger returns the application logger
func (s *ServiceContainer) Logger() *logger.Logger {
	return s.logger
}

// tokenClaims is the JWT claim set used by the API
type tokenClaims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// ValidateToken parses and validates a bearer token
func (s *ServiceContainer) ValidateToken(token string) (*types.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return &types.TokenClaims{
		Principal:    claims.Subject,
		Capabilities: claims.Capabilities,
	}, nil
}

// IssueToken mints a bearer token for a principal
func (s *ServiceContainer) IssueToken(principal string, capabilities []string) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		Capabilities: capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Security.JWTExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Security.JWTSecret))
}
