package models

import (
	"time"
)

// Post represents a post in the agrisocial feed, optionally scoped to a community.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	ImageURL    string     `gorm:"size:255" json:"image_url"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"-"`
	CommunityID *uint      `gorm:"index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"-"`
	Likes       []PostLike `gorm:"foreignKey:PostID" json:"-"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64     `gorm:"->;-:migration" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

// PostLike records one user's like on a post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostResponse is the serialized form of a post.
type PostResponse struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	UserID         uint      `json:"user_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	Likes          []uint    `json:"likes"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int64     `json:"comments_count"`
	ImageURL       string    `json:"image_url"`
	CommunityID    *uint     `json:"community_id"`
}

// LikedBy reports whether userID is among the post's likes.
func (p *Post) LikedBy(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// NewPostResponse serializes a post with its preloaded author and likes.
func NewPostResponse(p *Post) PostResponse {
	likes := make([]uint, 0, len(p.Likes))
	for _, l := range p.Likes {
		likes = append(likes, l.UserID)
	}
	resp := PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		UserID:        p.UserID,
		CreatedAt:     p.CreatedAt,
		Likes:         likes,
		LikesCount:    len(likes),
		CommentsCount: p.CommentsCount,
		ImageURL:      p.ImageURL,
		CommunityID:   p.CommunityID,
	}
	if p.User != nil {
		resp.AuthorUsername = p.User.Username
	}
	return resp
}

// NewPostResponses serializes a list of posts.
func NewPostResponses(posts []*Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}
