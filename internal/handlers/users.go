package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetUserProfile returns another user's public profile, karma included.
func (h *AuthHandler) GetUserProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"karma":      user.Karma,
		"country":    user.Country,
		"created_at": user.CreatedAt,
	})
}
