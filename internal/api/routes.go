// Package api wires the HTTP surface: routes, middleware, and the
// service container handlers receive.
package api

import (
	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/handlers"
	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/middlewares"
)

// SetupRouter builds the gin engine with all routes and middleware
func SetupRouter(services interfaces.Services, hub *handlers.EventHub) *gin.Engine {
	cfg := services.Config()
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()

	router.Use(middlewares.Recovery(services.Logger()))
	router.Use(middlewares.RequestLogging(services.Logger()))
	router.Use(middlewares.Security())
	router.Use(middlewares.CORS(&cfg.API.CORS))
	router.Use(middlewares.RateLimit(cfg.API.RateLimit))

	router.GET("/health", handlers.HealthCheck(services))

	v1 := router.Group("/api/v1")

	// Public surface: reads and proof replay need no token
	public := v1.Group("/public")
	{
		public.GET("/elections", handlers.ListElections(services))
		public.GET("/elections/:id", handlers.GetElection(services))
		public.GET("/elections/:id/candidates", handlers.ListCandidates(services))
		public.GET("/elections/:id/stats", handlers.GetElectionStats(services))
		public.POST("/verify-proof", handlers.VerifyProof(services))
	}

	// Authenticated surface: capability checks happen in the ledger
	// core, the middleware only resolves identity
	authed := v1.Group("")
	authed.Use(middlewares.Auth(services))
	{
		authed.POST("/elections", handlers.CreateElection(services))
		authed.PUT("/elections/:id", handlers.UpdateElection(services))
		authed.POST("/elections/:id/activate", handlers.ActivateElection(services))
		authed.POST("/elections/:id/complete", handlers.CompleteElection(services))

		authed.POST("/elections/:id/candidates", handlers.RegisterCandidate(services))
		authed.POST("/elections/:id/candidates/:candidateID/deactivate", handlers.DeactivateCandidate(services))

		authed.POST("/voters", handlers.RegisterVoter(services))
		authed.GET("/voters", handlers.ListVoters(services))
		authed.GET("/voters/:principal", handlers.GetVoter(services))
		authed.DELETE("/voters/:principal", handlers.RemoveVoter(services))
		authed.PUT("/voters/:principal/eligibility", handlers.SetVoterEligibility(services))

		authed.POST("/elections/:id/votes", handlers.CastVote(services))
		authed.GET("/elections/:id/votes", handlers.ListVotes(services))
		authed.GET("/elections/:id/votes/:voteID", handlers.GetVote(services))
		authed.POST("/elections/:id/votes/:voteID/verify", handlers.VerifyVote(services))
		authed.GET("/elections/:id/votes/:voteID/proof", handlers.ProveVote(services))

		authed.GET("/audit/trail", handlers.GetAuditTrail(services))
		authed.POST("/audit/trail", handlers.AppendAuditEntry(services))
		authed.GET("/audit/signer", handlers.GetSignerAddress(services))
		authed.POST("/audit/elections/:id/reports", handlers.FileAuditReport(services))
		authed.GET("/audit/elections/:id/reports", handlers.ListAuditReports(services))
		authed.GET("/audit/reports/:reportID", handlers.GetAuditReport(services))
		authed.POST("/audit/reports/:reportID/approve", handlers.ApproveAuditReport(services))

		authed.POST("/admin/roles", handlers.GrantRole(services))
		authed.DELETE("/admin/roles", handlers.RevokeRole(services))
		authed.GET("/admin/roles", handlers.ListRoles(services))

		authed.GET("/events", handlers.StreamEvents(hub, services))
	}

	return router
}
