package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	"github.com/imarises/TrustScore-FHE/internal/domain/grants"
	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// domainError maps core sentinel errors onto stable HTTP responses. The
// AlreadyVerified class answers 409 so clients can treat it as a no-op
// success; proof failures answer 422 and are retryable with a fresh proof.
func domainError(c *gin.Context, err error) {
	var unverified *score.UnverifiedError
	switch {
	case errors.Is(err, fhe.ErrInvalidCiphertext):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ciphertext"})
	case errors.Is(err, ledger.ErrInvalidLoanAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_loan_amount"})
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		c.JSON(http.StatusNotFound, gin.H{"error": "index_out_of_range"})
	case errors.Is(err, score.ErrNoLoanRecords):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "no_loan_records"})
	case errors.As(err, &unverified):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "unverified_repayments", "index": unverified.Index})
	case errors.Is(err, score.ErrNotComputed):
		c.JSON(http.StatusNotFound, gin.H{"error": "score_not_computed"})
	case errors.Is(err, disclosure.ErrNotDisclosable):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_disclosable"})
	case errors.Is(err, disclosure.ErrAlreadyVerified),
		errors.Is(err, ledger.ErrAlreadyVerified),
		errors.Is(err, score.ErrAlreadyVerified):
		c.JSON(http.StatusConflict, gin.H{"error": "already_verified"})
	case errors.Is(err, disclosure.ErrInvalidProof):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_proof"})
	case errors.Is(err, disclosure.ErrProofMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "proof_mismatch"})
	case errors.Is(err, disclosure.ErrMalformedClearValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_clear_value"})
	case errors.Is(err, disclosure.ErrUnknownTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_target"})
	case errors.Is(err, grants.ErrUnknownHandle):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_handle"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
