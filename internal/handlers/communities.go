package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

type CommunityHandler struct {
	membership *services.MembershipService
	logger     *slog.Logger
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// Create creates a new community owned by the caller.
func (h *CommunityHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateCommunityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.membership.CreateCommunity(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Community created successfully",
		"community": community,
	})
}

// List returns all communities.
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.membership.ListCommunities(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

// Get returns one community.
func (h *CommunityHandler) Get(c *gin.Context) {
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}

	community, err := h.membership.GetCommunity(c.Request.Context(), communityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": community})
}

// Join joins a public community or files a join request for a private one.
func (h *CommunityHandler) Join(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}

	state, err := h.membership.Join(c.Request.Context(), id, communityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if state == services.JoinStateRequested {
		c.JSON(http.StatusOK, gin.H{"message": "Join request sent to admins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined community successfully"})
}

// AcceptJoin approves a pending join request. Admin only.
func (h *CommunityHandler) AcceptJoin(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}
	requestedID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.membership.AcceptJoin(c.Request.Context(), id, communityID, requestedID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined community successfully"})
}

// DeclineJoin drops a pending join request. Admin only.
func (h *CommunityHandler) DeclineJoin(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}
	requestedID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.membership.DeclineJoin(c.Request.Context(), id, communityID, requestedID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Join request declined successfully"})
}

// RemoveMember kicks a member out of the community. Admin only.
func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.membership.RemoveMember(c.Request.Context(), id, communityID, targetID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed successfully"})
}

// Delete removes the community and everything in it. Owner only.
func (h *CommunityHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}

	if err := h.membership.DeleteCommunity(c.Request.Context(), id, communityID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Community deleted"})
}
