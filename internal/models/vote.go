package models

import "time"

// Vote targets and types.
const (
	TargetPost    = "Post"
	TargetComment = "Comment"

	VoteUp   = "up"
	VoteDown = "down"
)

// Vote is the normalized record of one user's vote on one target. It is the
// single source of truth; targets carry only the derived vote count.
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_user_target;not null" json:"user_id"`
	TargetID   int       `gorm:"uniqueIndex:idx_user_target;not null" json:"target_id"`
	TargetType string    `gorm:"uniqueIndex:idx_user_target;not null" json:"target_type"`
	VoteType   string    `gorm:"not null" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Vote outcome states.
const (
	VoteRecorded = "recorded"
	VoteRemoved  = "removed"
	VoteUpdated  = "updated"
)

// VoteResult reports what a cast did and the delta applied to the target's
// vote count (and, best-effort, the author's karma).
type VoteResult struct {
	State    string `json:"state"`
	NetDelta int    `json:"net_delta"`
}

type CastVoteRequest struct {
	TargetID   int    `json:"target_id"`
	TargetType string `json:"target_type"`
	Type       string `json:"type"`
}
