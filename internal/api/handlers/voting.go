package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/middlewares"
	"election-ledger/internal/api/types"
	"election-ledger/internal/ledger"
)

// CastVote handles POST /api/v1/elections/:id/votes
func CastVote(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CastVoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		vote, err := services.Ledger().CastVote(actor, ledger.CastVoteRequest{
			ElectionID:       c.Param("id"),
			CandidateID:      req.CandidateID,
			VoterPrincipal:   req.VoterPrincipal,
			Nullifier:        req.Nullifier,
			EncryptedPayload: req.EncryptedPayload,
			ZKProof:          req.ZKProof,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, vote)
	}
}

// GetVote handles GET /api/v1/elections/:id/votes/:voteID
func GetVote(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		vote, err := services.Ledger().GetVote(actor, c.Param("id"), c.Param("voteID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, vote)
	}
}

// ListVotes handles GET /api/v1/elections/:id/votes
func ListVotes(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		votes, err := services.Ledger().ListVotes(actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, votes)
	}
}

// VerifyVote handles POST /api/v1/elections/:id/votes/:voteID/verify
func VerifyVote(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		vote, err := services.Ledger().VerifyVote(actor, c.Param("id"), c.Param("voteID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, vote)
	}
}

// ProveVote handles GET /api/v1/elections/:id/votes/:voteID/proof
func ProveVote(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		proof, err := services.Ledger().ProveVote(actor, c.Param("id"), c.Param("voteID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, proof)
	}
}

// VerifyProof handles POST /api/v1/public/verify-proof
func VerifyProof(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.VerifyProofRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		valid, err := services.Ledger().VerifyProof(req.ElectionID, req.LeafHash, req.Proof)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, gin.H{"valid": valid})
	}
}
