package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/community-forum/backend/internal/media"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Community *CommunityHandler
	Post      *PostHandler
	Comment   *CommentHandler
	Vote      *VoteHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(
	auth *services.AuthService,
	membership *services.MembershipService,
	content *services.ContentService,
	votes *services.VoteService,
	mediaStore media.Store,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		Auth:      &AuthHandler{auth: auth, logger: logger},
		Community: &CommunityHandler{membership: membership, logger: logger},
		Post:      &PostHandler{content: content, media: mediaStore, logger: logger},
		Comment:   &CommentHandler{content: content, logger: logger},
		Vote:      &VoteHandler{votes: votes, logger: logger},
	}
}

func userID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// respondError maps the service error taxonomy onto HTTP status codes.
// Unexpected errors are logged and surfaced generically.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": vErr.Messages})
		return
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDependency):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error("internal error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
