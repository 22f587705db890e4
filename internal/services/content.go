package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// ContentService manages the post and comment lifecycle, including the
// cascades that keep votes and comments from outliving their parents.
type ContentService struct {
	db         *gorm.DB
	membership *MembershipService
}

func NewContentService(db *gorm.DB, membership *MembershipService) *ContentService {
	return &ContentService{db: db, membership: membership}
}

// CreatePost adds a post to a community. Members only; media has already been
// uploaded and arrives as {url, kind} pairs in upload order.
func (s *ContentService) CreatePost(ctx context.Context, authorID, communityID int, req models.CreatePostRequest, media []models.PostMedia) (*models.Post, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if err := s.requireMember(ctx, authorID, communityID); err != nil {
		return nil, err
	}

	post := models.Post{
		Title:       req.Title,
		Body:        req.Body,
		AuthorID:    authorID,
		CommunityID: communityID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		for i := range media {
			media[i].PostID = post.ID
			media[i].Position = i
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return fmt.Errorf("create post media: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	post.Media = media
	return &post, nil
}

// GetPost returns one post with its media. Members only.
func (s *ContentService) GetPost(ctx context.Context, userID, postID int) (*models.Post, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, post.CommunityID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).Order("position").
		Find(&post.Media).Error; err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	return post, nil
}

// ListPosts returns a community's posts, newest first. Members only.
func (s *ContentService) ListPosts(ctx context.Context, userID, communityID int) ([]models.Post, error) {
	if _, err := s.membership.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, communityID); err != nil {
		return nil, err
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("Media").Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// EditPost updates only the supplied fields. Author only.
func (s *ContentService) EditPost(ctx context.Context, actorID, postID int, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, fmt.Errorf("%w: you can only edit your own posts", models.ErrForbidden)
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Body != "" {
		post.Body = req.Body
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(post).Error; err != nil {
			return fmt.Errorf("save post: %w", err)
		}
		// New uploads replace the attachment list wholesale, like the
		// original edit flow.
		if len(req.Media) > 0 {
			if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostMedia{}).Error; err != nil {
				return fmt.Errorf("delete old media: %w", err)
			}
			for i := range req.Media {
				req.Media[i].PostID = post.ID
				req.Media[i].Position = i
			}
			if err := tx.Create(&req.Media).Error; err != nil {
				return fmt.Errorf("create media: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post, its comments, and every vote on either, as one
// unit. Allowed for the author or a community admin.
func (s *ContentService) DeletePost(ctx context.Context, actorID, postID int) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrAdmin(ctx, actorID, post.AuthorID, post.CommunityID, "posts"); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deletePostTree(tx, post.ID)
	})
}

// AddComment appends a comment to a post. Members only.
func (s *ContentService) AddComment(ctx context.Context, userID, postID int, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, post.CommunityID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Text:     text,
		AuthorID: userID,
		PostID:   post.ID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// ListComments returns a post's comments, newest first. Members only.
func (s *ContentService) ListComments(ctx context.Context, userID, postID int) ([]models.Comment, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, post.CommunityID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err = s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// EditComment replaces the comment text. Author only; empty or whitespace
// text is rejected.
func (s *ContentService) EditComment(ctx context.Context, actorID, commentID int, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actorID {
		return nil, fmt.Errorf("%w: you can only edit your own comments", models.ErrForbidden)
	}

	comment.Text = text
	if err := s.db.WithContext(ctx).Save(comment).Error; err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes the comment and its votes. Allowed for the author or
// a community admin.
func (s *ContentService) DeleteComment(ctx context.Context, actorID, commentID int) error {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.findPost(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrAdmin(ctx, actorID, comment.AuthorID, post.CommunityID, "comments"); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_id = ? AND target_type = ?", comment.ID, models.TargetComment).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete comment votes: %w", err)
		}
		if err := tx.Delete(&models.Comment{}, comment.ID).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
}

// deletePostTree removes a post together with its votes, comments, comment
// votes, and media rows. Callers supply the transaction.
func deletePostTree(tx *gorm.DB, postID int) error {
	var commentIDs []int
	if err := tx.Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &commentIDs).Error; err != nil {
		return fmt.Errorf("collect comment ids: %w", err)
	}

	if err := tx.Where("target_id = ? AND target_type = ?", postID, models.TargetPost).
		Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("delete post votes: %w", err)
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("target_id IN ? AND target_type = ?", commentIDs, models.TargetComment).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete comment votes: %w", err)
		}
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostMedia{}).Error; err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if err := tx.Delete(&models.Post{}, postID).Error; err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *ContentService) findPost(ctx context.Context, postID int) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func (s *ContentService) findComment(ctx context.Context, commentID int) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &comment, nil
}

func (s *ContentService) requireMember(ctx context.Context, userID, communityID int) error {
	isMember, err := s.membership.IsMember(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: user is not a member of the community", models.ErrForbidden)
	}
	return nil
}

func (s *ContentService) requireAuthorOrAdmin(ctx context.Context, actorID, authorID, communityID int, noun string) error {
	if actorID == authorID {
		return nil
	}
	isAdmin, err := s.membership.IsAdmin(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("%w: you can only delete your own %s", models.ErrForbidden, noun)
	}
	return nil
}
