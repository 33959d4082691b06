package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/middlewares"
	"election-ledger/internal/api/types"
)

// CreateElection handles POST /api/v1/elections
func CreateElection(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateElectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		election, err := services.Ledger().CreateElection(actor, req.Name, req.Description, req.WindowStart, req.WindowEnd)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, election)
	}
}

// UpdateElection handles PUT /api/v1/elections/:id
func UpdateElection(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.UpdateElectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		election, err := services.Ledger().UpdateElection(actor, c.Param("id"), req.Name, req.Description)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, election)
	}
}

// ActivateElection handles POST /api/v1/elections/:id/activate
func ActivateElection(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		election, err := services.Ledger().ActivateElection(actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, election)
	}
}

// CompleteElection handles POST /api/v1/elections/:id/complete
func CompleteElection(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Body is optional; completion without an archive ref is fine
		var req types.CompleteElectionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondBindError(c, err)
				return
			}
		}

		actor := middlewares.ActorFromContext(c)
		election, err := services.Ledger().CompleteElection(actor, c.Param("id"), req.ArchiveRef)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, election)
	}
}

// GetElection handles GET /api/v1/public/elections/:id
func GetElection(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		election, err := services.Ledger().GetElection(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, election)
	}
}

// ListElections handles GET /api/v1/public/elections
func ListElections(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		elections, err := services.Ledger().ListElections(c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, elections)
	}
}

// GetElectionStats handles GET /api/v1/public/elections/:id/stats
func GetElectionStats(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := services.Ledger().Stats(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, stats)
	}
}

// RegisterCandidate handles POST /api/v1/elections/:id/candidates
func RegisterCandidate(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RegisterCandidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		candidate, err := services.Ledger().RegisterCandidate(actor, c.Param("id"), req.Name, req.Party, req.BallotNumber)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, candidate)
	}
}

// DeactivateCandidate handles POST /api/v1/elections/:id/candidates/:candidateID/deactivate
func DeactivateCandidate(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		candidate, err := services.Ledger().DeactivateCandidate(actor, c.Param("id"), c.Param("candidateID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, candidate)
	}
}

// ListCandidates handles GET /api/v1/public/elections/:id/candidates
func ListCandidates(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates, err := services.Ledger().ListCandidates(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, candidates)
	}
}

// RegisterVoter handles POST /api/v1/voters
func RegisterVoter(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RegisterVoterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		voter, err := services.Ledger().RegisterVoter(actor, req.Principal)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, voter)
	}
}

// RemoveVoter handles DELETE /api/v1/voters/:principal
func RemoveVoter(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		if err := services.Ledger().RemoveVoter(actor, c.Param("principal")); err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, gin.H{"principal": c.Param("principal"), "eligible": false})
	}
}

// SetVoterEligibility handles PUT /api/v1/voters/:principal/eligibility
func SetVoterEligibility(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.VoterEligibilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		voter, err := services.Ledger().SetVoterEligibility(actor, c.Param("principal"), *req.Eligible)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, voter)
	}
}

// GetVoter handles GET /api/v1/voters/:principal
func GetVoter(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		voter, err := services.Ledger().GetVoter(actor, c.Param("principal"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, voter)
	}
}

// ListVoters handles GET /api/v1/voters
func ListVoters(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		voters, err := services.Ledger().ListVoters(actor)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, voters)
	}
}
