package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

type VoteHandler struct {
	votes  *services.VoteService
	logger *slog.Logger
}

// Cast records, flips, or retracts the caller's vote on a post or comment.
func (h *VoteHandler) Cast(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CastVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), id, input.TargetID, input.TargetType, input.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var message string
	switch result.State {
	case models.VoteRemoved:
		message = "Vote removed"
	case models.VoteUpdated:
		message = "Vote updated"
	default:
		message = "Vote recorded"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"state":     result.State,
		"net_delta": result.NetDelta,
	})
}
