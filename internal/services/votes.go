package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// VoteService records, flips, and retracts votes on posts and comments, and
// propagates the net effect to the target's vote count and the author's
// karma.
type VoteService struct {
	db         *gorm.DB
	membership *MembershipService
	logger     *slog.Logger
}

func NewVoteService(db *gorm.DB, membership *MembershipService, logger *slog.Logger) *VoteService {
	return &VoteService{db: db, membership: membership, logger: logger}
}

// CastVote applies one vote action for a user on a target:
//
//   - no prior vote: record it, delta +1 (up) or -1 (down)
//   - prior vote of the same type: retract it, exactly undoing the original
//   - prior vote of the other type: flip it, delta +2 or -2
//
// Re-sending the same vote type always means "undo", never a no-op. The same
// delta applied to the target's vote count goes to the author's karma; if the
// author row is gone the karma update is skipped and the vote still commits.
func (s *VoteService) CastVote(ctx context.Context, userID, targetID int, targetType, voteType string) (*models.VoteResult, error) {
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return nil, fmt.Errorf("%w: invalid vote type", models.ErrValidation)
	}
	if targetType != models.TargetPost && targetType != models.TargetComment {
		return nil, fmt.Errorf("%w: invalid target type", models.ErrValidation)
	}

	authorID, communityID, err := s.resolveTarget(ctx, targetID, targetType)
	if err != nil {
		return nil, err
	}

	isMember, err := s.membership.IsMember(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: you are not a member of this community", models.ErrForbidden)
	}

	var result models.VoteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockTarget(tx, targetID, targetType); err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
			First(&existing).Error

		var delta int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				UserID:     userID,
				TargetID:   targetID,
				TargetType: targetType,
				VoteType:   voteType,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("create vote: %w", err)
			}
			delta = voteDelta(voteType)
			result.State = models.VoteRecorded

		case err != nil:
			return fmt.Errorf("find vote: %w", err)

		case existing.VoteType == voteType:
			// Same type again: undo the original effect entirely.
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
			delta = -voteDelta(existing.VoteType)
			result.State = models.VoteRemoved

		default:
			existing.VoteType = voteType
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update vote: %w", err)
			}
			delta = 2 * voteDelta(voteType)
			result.State = models.VoteUpdated
		}

		if err := s.applyDelta(tx, targetID, targetType, delta); err != nil {
			return err
		}
		if err := s.applyKarma(tx, authorID, delta); err != nil {
			return err
		}
		result.NetDelta = delta
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func voteDelta(voteType string) int {
	if voteType == models.VoteUp {
		return 1
	}
	return -1
}

// resolveTarget finds the vote target's author and owning community. For a
// comment that means walking comment -> post -> community.
func (s *VoteService) resolveTarget(ctx context.Context, targetID int, targetType string) (authorID, communityID int, err error) {
	if targetType == models.TargetPost {
		var post models.Post
		if err := s.db.WithContext(ctx).First(&post, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, fmt.Errorf("%w: post not found", models.ErrNotFound)
			}
			return 0, 0, fmt.Errorf("find post: %w", err)
		}
		return post.AuthorID, post.CommunityID, nil
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("%w: comment not found", models.ErrNotFound)
		}
		return 0, 0, fmt.Errorf("find comment: %w", err)
	}
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, comment.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("%w: post not found", models.ErrNotFound)
		}
		return 0, 0, fmt.Errorf("find parent post: %w", err)
	}
	return comment.AuthorID, post.CommunityID, nil
}

// lockTarget serializes concurrent casts against the same target. Postgres
// gets a row lock; sqlite (tests) already serializes writers.
func (s *VoteService) lockTarget(tx *gorm.DB, targetID int, targetType string) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var err error
	if targetType == models.TargetPost {
		err = q.First(&models.Post{}, targetID).Error
	} else {
		err = q.First(&models.Comment{}, targetID).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: target not found", models.ErrNotFound)
		}
		return fmt.Errorf("lock target: %w", err)
	}
	return nil
}

func (s *VoteService) applyDelta(tx *gorm.DB, targetID int, targetType string, delta int) error {
	var err error
	if targetType == models.TargetPost {
		err = tx.Model(&models.Post{}).Where("id = ?", targetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error
	} else {
		err = tx.Model(&models.Comment{}).Where("id = ?", targetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error
	}
	if err != nil {
		return fmt.Errorf("update vote count: %w", err)
	}
	return nil
}

// applyKarma is best effort: a missing author skips the update, the vote
// itself stays authoritative.
func (s *VoteService) applyKarma(tx *gorm.DB, authorID, delta int) error {
	res := tx.Model(&models.User{}).Where("id = ?", authorID).
		UpdateColumn("karma", gorm.Expr("karma + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update karma: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Warn("karma update skipped, author missing", "author_id", authorID)
	}
	return nil
}
