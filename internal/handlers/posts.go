package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/community-forum/backend/internal/media"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

type PostHandler struct {
	content *services.ContentService
	media   media.Store
	logger  *slog.Logger
}

// uploadFiles pushes each multipart attachment to the media store and
// returns the {url, kind} pairs in upload order.
func (h *PostHandler) uploadFiles(c *gin.Context, files []*multipart.FileHeader) ([]models.PostMedia, error) {
	var uploaded []models.PostMedia
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		m, err := h.media.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, *m)
	}
	return uploaded, nil
}

// Create creates a post in a community, uploading any attached media first.
func (h *PostHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}

	input := models.CreatePostRequest{
		Title: c.PostForm("title"),
		Body:  c.PostForm("body"),
	}

	var uploaded []models.PostMedia
	if form, err := c.MultipartForm(); err == nil && form != nil {
		uploaded, err = h.uploadFiles(c, form.File["media"])
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	post, err := h.content.CreatePost(c.Request.Context(), id, communityID, input, uploaded)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

// Get returns a single post by ID.
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.content.GetPost(c.Request.Context(), id, postID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// List returns all posts in a community.
func (h *PostHandler) List(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	communityID, ok := pathID(c, "communityId")
	if !ok {
		return
	}

	posts, err := h.content.ListPosts(c.Request.Context(), id, communityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Update edits only the supplied fields of a post. Author only.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	input := models.UpdatePostRequest{
		Title: c.PostForm("title"),
		Body:  c.PostForm("body"),
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		uploaded, err := h.uploadFiles(c, form.File["media"])
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		input.Media = uploaded
	}

	post, err := h.content.EditPost(c.Request.Context(), id, postID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
}

// Delete removes a post and everything hanging off it. Author or admin.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.content.DeletePost(c.Request.Context(), id, postID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
