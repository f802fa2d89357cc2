// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account in the agrisocial application.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email             string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password          string    `gorm:"size:255;not null" json:"-"`
	Bio               string    `gorm:"type:text" json:"bio"`
	ProfilePictureURL string    `gorm:"size:255" json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"-"`
}

// UserSummary is the compact user shape used in follower and member lists.
type UserSummary struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// Summary returns the compact representation of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

// UserProfile is a user enriched with follow statistics.
type UserProfile struct {
	User
	FollowersCount            int64 `json:"followers_count"`
	FollowingUsersCount       int64 `json:"following_users_count"`
	FollowingCommunitiesCount int64 `json:"following_communities_count"`
	IsFollowedByCurrentUser   bool  `json:"is_followed_by_current_user"`
}
