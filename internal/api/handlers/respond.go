package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/models"
	"election-ledger/internal/api/types"
	"election-ledger/internal/ledger"
)

// respondError maps ledger errors onto HTTP status codes and the
// shared error envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := models.ErrCodeInternal

	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
		code = models.ErrCodeForbidden
	case errors.Is(err, ledger.ErrElectionNotFound),
		errors.Is(err, ledger.ErrCandidateNotFound),
		errors.Is(err, ledger.ErrVoterNotFound),
		errors.Is(err, ledger.ErrVoteNotFound),
		errors.Is(err, ledger.ErrReportNotFound):
		status = http.StatusNotFound
		code = models.ErrCodeNotFound
	case errors.Is(err, ledger.ErrAlreadyVoted),
		errors.Is(err, ledger.ErrNullifierReused),
		errors.Is(err, ledger.ErrDuplicateBallotNumber),
		errors.Is(err, ledger.ErrVoterAlreadyRegistered),
		errors.Is(err, ledger.ErrReportAlreadyApproved):
		status = http.StatusConflict
		code = models.ErrCodeConflict
	case errors.Is(err, ledger.ErrElectionNotDraft),
		errors.Is(err, ledger.ErrElectionNotActive),
		errors.Is(err, ledger.ErrElectionNotCompleted),
		errors.Is(err, ledger.ErrElectionCompleted),
		errors.Is(err, ledger.ErrWindowNotReached),
		errors.Is(err, ledger.ErrWindowNotElapsed),
		errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrInvalidCandidate),
		errors.Is(err, ledger.ErrVoterNotEligible):
		status = http.StatusUnprocessableEntity
		code = models.ErrCodeInvalidState
	case errors.Is(err, ledger.ErrInvalidNullifier),
		errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
		code = models.ErrCodeValidation
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay out of responses
		message = "internal server error"
	}

	c.JSON(status, types.ErrorResponse{Error: message, Code: code})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error:   "invalid request body",
		Code:    models.ErrCodeInvalidRequest,
		Message: err.Error(),
	})
}

// respondOK wraps data in the success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, types.SuccessResponse{Success: true, Data: data})
}
