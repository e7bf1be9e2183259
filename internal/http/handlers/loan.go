package handlers

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/http/middleware"
)

type LoanService interface {
	CreateLoan(ctx context.Context, in ledger.CreateLoanInput) (*ledger.Record, error)
	GetLoans(ctx context.Context, borrower string) ([]ledger.Record, error)
}

type LoanHandler struct {
	loanService LoanService
}

func NewLoanHandler(loanService LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

type createLoanRequest struct {
	Ciphertext string `json:"ciphertext" binding:"required"`
	InputProof string `json:"input_proof" binding:"required"`
	LoanAmount int64  `json:"loan_amount" binding:"required"`
	DueDate    string `json:"due_date" binding:"required"`
}

func (h *LoanHandler) CreateLoan(c *gin.Context) {
	borrower := middleware.PrincipalID(c)
	if borrower == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	ciphertext, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(req.Ciphertext), "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ciphertext"})
		return
	}
	proof, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(req.InputProof), "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ciphertext"})
		return
	}
	dueDate, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DueDate))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_due_date"})
		return
	}

	rec, err := h.loanService.CreateLoan(c.Request.Context(), ledger.CreateLoanInput{
		Borrower:   borrower,
		Ciphertext: ciphertext,
		InputProof: proof,
		LoanAmount: req.LoanAmount,
		DueDate:    dueDate,
	})
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanResponse(rec))
}

func (h *LoanHandler) ListLoans(c *gin.Context) {
	borrower := middleware.PrincipalID(c)
	if param := strings.TrimSpace(c.Query("borrower")); param != "" {
		borrower = param
	}
	if borrower == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_borrower"})
		return
	}

	items, err := h.loanService.GetLoans(c.Request.Context(), borrower)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_loans_failed"})
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, loanResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// loanResponse omits clear_repayment until the record is verified; before
// that the column holds no meaningful value.
func loanResponse(rec *ledger.Record) gin.H {
	out := gin.H{
		"borrower":    rec.Borrower,
		"index":       rec.Index,
		"handle":      string(rec.EncryptedRepayment),
		"loan_amount": rec.LoanAmount,
		"due_date":    rec.DueDate.UTC().Format(time.RFC3339),
		"is_repaid":   rec.IsRepaid,
		"is_verified": rec.IsVerified,
		"created_at":  rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.IsVerified {
		out["clear_repayment"] = rec.ClearRepayment
	}
	return out
}

func parseIndex(c *gin.Context) (int32, bool) {
	raw := strings.TrimSpace(c.Param("index"))
	idx, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_index"})
		return 0, false
	}
	return int32(idx), true
}
