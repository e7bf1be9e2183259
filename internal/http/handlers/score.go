package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/http/middleware"
)

type ScoreService interface {
	ComputeScore(ctx context.Context, user string) (*score.Entity, error)
	GetScore(ctx context.Context, user string) (*score.Entity, error)
}

type ScoreHandler struct {
	scoreService ScoreService
}

func NewScoreHandler(scoreService ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

func (h *ScoreHandler) ComputeScore(c *gin.Context) {
	user := middleware.PrincipalID(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entity, err := h.scoreService.ComputeScore(c.Request.Context(), user)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scoreResponse(entity))
}

func (h *ScoreHandler) GetScore(c *gin.Context) {
	user := middleware.PrincipalID(c)
	if param := strings.TrimSpace(c.Query("user")); param != "" {
		user = param
	}
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user"})
		return
	}

	entity, err := h.scoreService.GetScore(c.Request.Context(), user)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, scoreResponse(entity))
}

func scoreResponse(entity *score.Entity) gin.H {
	out := gin.H{
		"user":        entity.User,
		"handle":      string(entity.EncryptedScore),
		"loan_count":  entity.LoanCount,
		"is_verified": entity.IsVerified,
		"computed_at": entity.ComputedAt.UTC().Format(time.RFC3339),
	}
	if entity.IsVerified {
		out["clear_score"] = entity.ClearScore
	}
	return out
}
