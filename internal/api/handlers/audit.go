package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/api/middlewares"
	"election-ledger/internal/api/types"
)

// GetAuditTrail handles GET /api/v1/audit/trail
func GetAuditTrail(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		actor := middlewares.ActorFromContext(c)
		entries, err := services.Ledger().AuditTrail(actor, c.Query("election_id"), c.Query("action"), limit)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, entries)
	}
}

// AppendAuditEntry handles POST /api/v1/audit/trail
func AppendAuditEntry(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.AppendAuditEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		entry, err := services.Ledger().AppendAuditEntry(actor, req.ElectionID, req.Action, req.Description, req.DataHash)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, entry)
	}
}

// GetSignerAddress handles GET /api/v1/audit/signer
func GetSignerAddress(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, gin.H{"address": services.Ledger().SignerAddress()})
	}
}

// FileAuditReport handles POST /api/v1/audit/elections/:id/reports
func FileAuditReport(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.FileReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		report, err := services.Ledger().FileReport(actor, c.Param("id"), req.Summary, req.Findings, req.ArchiveRef)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, report)
	}
}

// ListAuditReports handles GET /api/v1/audit/elections/:id/reports
func ListAuditReports(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		reports, err := services.Ledger().ListReports(actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, reports)
	}
}

// GetAuditReport handles GET /api/v1/audit/reports/:reportID
func GetAuditReport(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		report, err := services.Ledger().GetReport(actor, c.Param("reportID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, report)
	}
}

// ApproveAuditReport handles POST /api/v1/audit/reports/:reportID/approve
func ApproveAuditReport(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		report, err := services.Ledger().ApproveReport(actor, c.Param("reportID"))
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, report)
	}
}

// GrantRole handles POST /api/v1/admin/roles
func GrantRole(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		role, err := services.Ledger().GrantRole(actor, req.Principal, req.Capability)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusCreated, role)
	}
}

// RevokeRole handles DELETE /api/v1/admin/roles
func RevokeRole(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		actor := middlewares.ActorFromContext(c)
		if err := services.Ledger().RevokeRole(actor, req.Principal, req.Capability); err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, gin.H{"revoked": true})
	}
}

// ListRoles handles GET /api/v1/admin/roles
func ListRoles(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middlewares.ActorFromContext(c)
		roles, err := services.Ledger().ListRoles(actor)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, roles)
	}
}
