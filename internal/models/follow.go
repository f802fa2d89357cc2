package models

import "time"

// FollowedType distinguishes what a follow points at.
type FollowedType string

const (
	// FollowedTypeUser marks a follow of another user.
	FollowedTypeUser FollowedType = "user"
	// FollowedTypeCommunity marks a follow of a community.
	FollowedTypeCommunity FollowedType = "community"
)

// Valid reports whether t is a known followed type.
func (t FollowedType) Valid() bool {
	return t == FollowedTypeUser || t == FollowedTypeCommunity
}

// Follow records that a user follows another user or a community.
type Follow struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	FollowerID   uint         `gorm:"not null;uniqueIndex:idx_follows_unique;index" json:"follower_id"`
	FollowedID   uint         `gorm:"not null;uniqueIndex:idx_follows_unique;index:idx_follows_target,priority:1" json:"followed_id"`
	FollowedType FollowedType `gorm:"type:varchar(20);not null;uniqueIndex:idx_follows_unique;index:idx_follows_target,priority:2" json:"followed_type"`
	CreatedAt    time.Time    `json:"timestamp"`
}
