package models

import "time"

// Media kinds, derived from the uploaded file's content type.
const (
	MediaImage = "Image"
	MediaVideo = "Video"
)

type Post struct {
	ID    int    `gorm:"primaryKey" json:"id"`
	Title string `gorm:"not null" json:"title"`
	Body  string `json:"body"`

	AuthorID int  `gorm:"index" json:"author_id"`
	User     User `gorm:"foreignKey:AuthorID" json:"user"`

	// CommunityID never changes after creation.
	CommunityID int `gorm:"index;not null" json:"community_id"`

	// VoteCount is derived from the votes table and maintained in the same
	// transaction as the vote rows.
	VoteCount int `gorm:"default:0" json:"vote_count"`

	Media []PostMedia `gorm:"foreignKey:PostID" json:"media"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostMedia is one uploaded attachment, kept in upload order.
type PostMedia struct {
	ID       int    `gorm:"primaryKey" json:"-"`
	PostID   int    `gorm:"index;not null" json:"-"`
	URL      string `gorm:"not null" json:"url"`
	Kind     string `gorm:"not null" json:"kind"`
	Position int    `json:"-"`
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdatePostRequest struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Media []PostMedia `json:"-"`
}
