package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// MembershipService owns community membership: who belongs, who administers,
// and the join-request flow for private communities. It is also the single
// place role facts (owner/admin/member) are derived.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// Join outcomes.
const (
	JoinStateJoined    = "joined"
	JoinStateRequested = "requested"
)

// CreateCommunity creates a community with the caller as owner, admin, and
// first member.
func (s *MembershipService) CreateCommunity(ctx context.Context, ownerID int, req models.CreateCommunityRequest) (*models.Community, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: community name is required", models.ErrValidation)
	}
	access := req.Access
	if access == "" {
		access = models.AccessPublic
	}
	if access != models.AccessPublic && access != models.AccessPrivate {
		return nil, fmt.Errorf("%w: access must be Public or Private", models.ErrValidation)
	}

	var existing models.Community
	if err := s.db.WithContext(ctx).Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: community name already exists", models.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check community name: %w", err)
	}

	community := models.Community{
		Name:        req.Name,
		Description: req.Description,
		Access:      access,
		OwnerID:     ownerID,
		MemberCount: 1,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return fmt.Errorf("create community: %w", err)
		}
		membership := models.Membership{
			CommunityID: community.ID,
			UserID:      ownerID,
			Role:        models.RoleAdmin,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// ListCommunities returns every community.
func (s *MembershipService) ListCommunities(ctx context.Context) ([]models.Community, error) {
	var communities []models.Community
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&communities).Error; err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return communities, nil
}

// GetCommunity loads one community by id.
func (s *MembershipService) GetCommunity(ctx context.Context, communityID int) (*models.Community, error) {
	var community models.Community
	if err := s.db.WithContext(ctx).First(&community, communityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("get community: %w", err)
	}
	return &community, nil
}

// Join adds the user to a public community immediately, or files a join
// request for a private one. Member counts only move on actual membership.
func (s *MembershipService) Join(ctx context.Context, userID, communityID int) (string, error) {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return "", err
	}

	isMember, err := s.IsMember(ctx, userID, communityID)
	if err != nil {
		return "", err
	}
	if isMember {
		return "", fmt.Errorf("%w: user already joined", models.ErrConflict)
	}

	if community.Access == models.AccessPublic {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			membership := models.Membership{
				CommunityID: communityID,
				UserID:      userID,
				Role:        models.RoleMember,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return fmt.Errorf("create membership: %w", err)
			}
			return s.bumpMemberCount(tx, communityID, 1)
		})
		if err != nil {
			return "", err
		}
		return JoinStateJoined, nil
	}

	var request models.JoinRequest
	err = s.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&request).Error
	if err == nil {
		return "", fmt.Errorf("%w: you already requested to join", models.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check join request: %w", err)
	}

	request = models.JoinRequest{CommunityID: communityID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return "", fmt.Errorf("create join request: %w", err)
	}
	return JoinStateRequested, nil
}

// AcceptJoin moves a requested user into the members set. Admin only.
func (s *MembershipService) AcceptJoin(ctx context.Context, adminID, communityID, requestedID int) error {
	if err := s.requireAdmin(ctx, adminID, communityID); err != nil {
		return err
	}

	isMember, err := s.IsMember(ctx, requestedID, communityID)
	if err != nil {
		return err
	}
	if isMember {
		return fmt.Errorf("%w: user is already a member of this community", models.ErrConflict)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, requestedID).
			Delete(&models.JoinRequest{})
		if res.Error != nil {
			return fmt.Errorf("delete join request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user didn't request to join the community", models.ErrValidation)
		}

		membership := models.Membership{
			CommunityID: communityID,
			UserID:      requestedID,
			Role:        models.RoleMember,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		return s.bumpMemberCount(tx, communityID, 1)
	})
}

// DeclineJoin drops a pending join request without any membership change.
// Admin only.
func (s *MembershipService) DeclineJoin(ctx context.Context, adminID, communityID, requestedID int) error {
	if err := s.requireAdmin(ctx, adminID, communityID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, requestedID).
		Delete(&models.JoinRequest{})
	if res.Error != nil {
		return fmt.Errorf("delete join request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user didn't request to join the community", models.ErrValidation)
	}
	return nil
}

// RemoveMember kicks a member out of the community. Admin only; admins cannot
// remove themselves through this path.
func (s *MembershipService) RemoveMember(ctx context.Context, adminID, communityID, targetID int) error {
	if err := s.requireAdmin(ctx, adminID, communityID); err != nil {
		return err
	}
	if adminID == targetID {
		return fmt.Errorf("%w: admins cannot remove themselves", models.ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, targetID).
			Delete(&models.Membership{})
		if res.Error != nil {
			return fmt.Errorf("delete membership: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user isn't a member of the community", models.ErrValidation)
		}
		return s.bumpMemberCount(tx, communityID, -1)
	})
}

// DeleteCommunity removes the community and everything hanging off it: posts,
// their comments, every vote on either, media, memberships, and join
// requests. Owner only. The whole cascade commits or rolls back as a unit.
func (s *MembershipService) DeleteCommunity(ctx context.Context, ownerID, communityID int) error {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	if community.OwnerID != ownerID {
		return fmt.Errorf("%w: only the owner can delete the community", models.ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []int
		if err := tx.Model(&models.Post{}).
			Where("community_id = ?", communityID).
			Pluck("id", &postIDs).Error; err != nil {
			return fmt.Errorf("collect post ids: %w", err)
		}

		if len(postIDs) > 0 {
			var commentIDs []int
			if err := tx.Model(&models.Comment{}).
				Where("post_id IN ?", postIDs).
				Pluck("id", &commentIDs).Error; err != nil {
				return fmt.Errorf("collect comment ids: %w", err)
			}

			if err := tx.Where("target_id IN ? AND target_type = ?", postIDs, models.TargetPost).
				Delete(&models.Vote{}).Error; err != nil {
				return fmt.Errorf("delete post votes: %w", err)
			}
			if len(commentIDs) > 0 {
				if err := tx.Where("target_id IN ? AND target_type = ?", commentIDs, models.TargetComment).
					Delete(&models.Vote{}).Error; err != nil {
					return fmt.Errorf("delete comment votes: %w", err)
				}
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return fmt.Errorf("delete comments: %w", err)
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostMedia{}).Error; err != nil {
				return fmt.Errorf("delete post media: %w", err)
			}
			if err := tx.Where("community_id = ?", communityID).Delete(&models.Post{}).Error; err != nil {
				return fmt.Errorf("delete posts: %w", err)
			}
		}

		if err := tx.Where("community_id = ?", communityID).Delete(&models.Membership{}).Error; err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if err := tx.Where("community_id = ?", communityID).Delete(&models.JoinRequest{}).Error; err != nil {
			return fmt.Errorf("delete join requests: %w", err)
		}
		if err := tx.Delete(&models.Community{}, communityID).Error; err != nil {
			return fmt.Errorf("delete community: %w", err)
		}
		return nil
	})
}

// IsMember reports whether the user holds a membership row in the community.
func (s *MembershipService) IsMember(ctx context.Context, userID, communityID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

// IsAdmin reports whether the user administers the community. The owner is
// always an admin.
func (s *MembershipService) IsAdmin(ctx context.Context, userID, communityID int) (bool, error) {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return false, err
	}
	if community.OwnerID == userID {
		return true, nil
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND role = ?", communityID, userID, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return count > 0, nil
}

// IsOwner reports whether the user owns the community.
func (s *MembershipService) IsOwner(ctx context.Context, userID, communityID int) (bool, error) {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return false, err
	}
	return community.OwnerID == userID, nil
}

func (s *MembershipService) requireAdmin(ctx context.Context, userID, communityID int) error {
	isAdmin, err := s.IsAdmin(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("%w: only admins can do this action", models.ErrForbidden)
	}
	return nil
}

func (s *MembershipService) bumpMemberCount(tx *gorm.DB, communityID, delta int) error {
	err := tx.Model(&models.Community{}).
		Where("id = ?", communityID).
		UpdateColumn("member_count", gorm.Expr("member_count + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("update member count: %w", err)
	}
	return nil
}
