package models

import "time"

// Comment is a remark on a post. Replies point at a top-level comment
// through ParentCommentID; nesting stops at one level.
type Comment struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	PostID          uint          `gorm:"not null;index" json:"post_id"`
	Post            *Post         `gorm:"foreignKey:PostID" json:"-"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	User            *User         `gorm:"foreignKey:UserID" json:"-"`
	Text            string        `gorm:"type:text;not null" json:"text"`
	ParentCommentID *uint         `gorm:"index" json:"parent_comment_id"`
	Likes           []CommentLike `gorm:"foreignKey:CommentID" json:"-"`
	ReplyCount      int64         `gorm:"->;-:migration" json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"-"`
}

// CommentLike records one user's like on a comment.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// CommentResponse is the serialized form of a comment.
type CommentResponse struct {
	ID              uint      `json:"id"`
	PostID          uint      `json:"post_id"`
	UserID          uint      `json:"user_id"`
	AuthorUsername  string    `json:"author_username"`
	Text            string    `json:"text"`
	ParentCommentID *uint     `json:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at"`
	Likes           []uint    `json:"likes"`
	LikesCount      int       `json:"likes_count"`
	ReplyCount      int64     `json:"reply_count"`
}

func NewCommentResponse(c *Comment) CommentResponse {
	likes := make([]uint, 0, len(c.Likes))
	for _, l := range c.Likes {
		likes = append(likes, l.UserID)
	}
	resp := CommentResponse{
		ID:              c.ID,
		PostID:          c.PostID,
		UserID:          c.UserID,
		Text:            c.Text,
		ParentCommentID: c.ParentCommentID,
		CreatedAt:       c.CreatedAt,
		Likes:           likes,
		LikesCount:      len(likes),
		ReplyCount:      c.ReplyCount,
	}
	if c.User != nil {
		resp.AuthorUsername = c.User.Username
	}
	return resp
}

func NewCommentResponses(comments []*Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, NewCommentResponse(c))
	}
	return out
}
