package models

import "time"

// Community access modes.
const (
	AccessPublic  = "Public"
	AccessPrivate = "Private"
)

// Membership roles. The owner is implicitly an admin and a member.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Community struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Description string `json:"description"`
	Access      string `gorm:"default:Public" json:"access"`

	// OwnerID never changes after creation.
	OwnerID int  `gorm:"not null" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	// MemberCount is maintained incrementally and must equal the number of
	// membership rows for this community.
	MemberCount int `gorm:"default:1" json:"member_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is one user belonging to one community. A user is never in both
// memberships and join requests for the same community.
type Membership struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"uniqueIndex:idx_member;not null" json:"community_id"`
	UserID      int       `gorm:"uniqueIndex:idx_member;not null" json:"user_id"`
	Role        string    `gorm:"default:member" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// JoinRequest is a pending application to a private community.
type JoinRequest struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"uniqueIndex:idx_request;not null" json:"community_id"`
	UserID      int       `gorm:"uniqueIndex:idx_request;not null" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Access      string `json:"access"`
}
