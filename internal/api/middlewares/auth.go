package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/models"
	"election-ledger/internal/api/types"
	"election-ledger/internal/ledger"
)

const (
	// ContextPrincipal is the context key holding the caller's principal
	ContextPrincipal = "principal"

	// ContextCapabilities is the context key holding the caller's
	// resolved capability set
	ContextCapabilities = "capabilities"
)

// Auth validates the bearer token and resolves the caller's
// capabilities. Token claims are merged with grants from the roles
// table, so capabilities revoked after token issue still apply.
func Auth(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, types.ErrorResponse{
				Error: "authorization header required",
				Code:  models.ErrCodeUnauthorized,
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, types.ErrorResponse{
				Error: "authorization header must be a bearer token",
				Code:  models.ErrCodeUnauthorized,
			})
			c.Abort()
			return
		}

		claims, err := services.ValidateToken(parts[1])
		if err != nil {
			services.Logger().SecurityLogger("invalid_token", c.ClientIP(), err.Error())
			c.JSON(http.StatusUnauthorized, types.ErrorResponse{
				Error: "invalid or expired token",
				Code:  models.ErrCodeUnauthorized,
			})
			c.Abort()
			return
		}

		caps := ledger.NewCapabilitySet(claims.Capabilities...)
		granted, err := services.Ledger().ResolveCapabilities(claims.Principal)
		if err != nil {
			services.Logger().Error("Failed to resolve capabilities for %s: %v", claims.Principal, err)
		} else {
			for cap := range granted {
				caps[cap] = true
			}
		}

		c.Set(ContextPrincipal, claims.Principal)
		c.Set(ContextCapabilities, caps)
		c.Next()
	}
}

// ActorFromContext rebuilds the ledger actor stored by Auth.
// The zero actor, which holds no capabilities, is returned when the
// request skipped authentication.
func ActorFromContext(c *gin.Context) ledger.Actor {
	actor := ledger.Actor{Capabilities: ledger.CapabilitySet{}}
	if principal, ok := c.Get(ContextPrincipal); ok {
		actor.Principal = principal.(string)
	}
	if caps, ok := c.Get(ContextCapabilities); ok {
		actor.Capabilities = caps.(ledger.CapabilitySet)
	}
	return actor
}
