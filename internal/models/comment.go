package models

import "time"

type Comment struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Text string `gorm:"not null" json:"text"`

	AuthorID int  `gorm:"index" json:"author_id"`
	User     User `gorm:"foreignKey:AuthorID" json:"user"`

	// PostID never changes after creation.
	PostID int `gorm:"index;not null" json:"post_id"`

	VoteCount int `gorm:"default:0" json:"vote_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Text string `json:"text"`
}
