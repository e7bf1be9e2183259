package handlers

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	"github.com/imarises/TrustScore-FHE/internal/http/middleware"
)

type DisclosureService interface {
	Queue(ctx context.Context, target disclosure.Target, requester string) error
	Commit(ctx context.Context, target disclosure.Target, clearValue, proof []byte) error
}

type DisclosureHandler struct {
	service DisclosureService
}

func NewDisclosureHandler(service DisclosureService) *DisclosureHandler {
	return &DisclosureHandler{service: service}
}

// DiscloseLoan queues the asynchronous reveal of one loan's repayment. The
// worker performs the oracle round-trip and commits.
func (h *DisclosureHandler) DiscloseLoan(c *gin.Context) {
	requester := middleware.PrincipalID(c)
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	target := disclosure.LoanTarget(h.targetPrincipal(c), index)
	if err := h.service.Queue(c.Request.Context(), target, requester); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "target": target.String()})
}

func (h *DisclosureHandler) DiscloseScore(c *gin.Context) {
	requester := middleware.PrincipalID(c)
	target := disclosure.ScoreTarget(h.targetPrincipal(c))
	if err := h.service.Queue(c.Request.Context(), target, requester); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "target": target.String()})
}

type commitRequest struct {
	ClearValue string `json:"clear_value" binding:"required"`
	Proof      string `json:"proof" binding:"required"`
}

// VerifyLoan commits an externally obtained (clear value, proof) pair for a
// loan record, synchronously.
func (h *DisclosureHandler) VerifyLoan(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	h.commit(c, disclosure.LoanTarget(h.targetPrincipal(c), index))
}

func (h *DisclosureHandler) VerifyScore(c *gin.Context) {
	h.commit(c, disclosure.ScoreTarget(h.targetPrincipal(c)))
}

func (h *DisclosureHandler) commit(c *gin.Context, target disclosure.Target) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	clearValue, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(req.ClearValue), "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_clear_value"})
		return
	}
	proof, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(req.Proof), "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_proof"})
		return
	}

	if err := h.service.Commit(c.Request.Context(), target, clearValue, proof); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified", "target": target.String()})
}

// targetPrincipal defaults to the caller; auditors and admins may act on
// another principal's entries via the query parameter (the grant check in
// the protocol still applies).
func (h *DisclosureHandler) targetPrincipal(c *gin.Context) string {
	if param := strings.TrimSpace(c.Query("principal")); param != "" {
		return param
	}
	return middleware.PrincipalID(c)
}
