package repository

import (
	"context"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// FollowStats holds the follow counters shown on a user profile.
type FollowStats struct {
	Followers            int64
	FollowingUsers       int64
	FollowingCommunities int64
}

// FollowRepository persists follows of users and communities.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) error
	Unfollow(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) error
	IsFollowing(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) (bool, error)
	Followers(ctx context.Context, userID uint) ([]*models.User, error)
	FollowingUsers(ctx context.Context, userID uint) ([]*models.User, error)
	FollowingCommunities(ctx context.Context, userID uint) ([]*models.Community, error)
	Stats(ctx context.Context, userID uint) (FollowStats, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) error {
	f := &models.Follow{FollowerID: followerID, FollowedID: followedID, FollowedType: followedType}
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Already following")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ? AND followed_type = ?", followerID, followedID, followedType).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Not following")
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID uint, followedType models.FollowedType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ? AND followed_type = ?", followerID, followedID, followedType).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	var users []*models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ? AND follows.followed_type = ?", userID, models.FollowedTypeUser).
		Order("follows.created_at DESC, follows.id DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) FollowingUsers(ctx context.Context, userID uint) ([]*models.User, error) {
	var users []*models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id AND follows.followed_type = ?", models.FollowedTypeUser).
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) FollowingCommunities(ctx context.Context, userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := withCommunityDetails(readDB(r.db).WithContext(ctx)).
		Joins("JOIN follows ON follows.followed_id = communities.id AND follows.followed_type = ?", models.FollowedTypeCommunity).
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *followRepository) Stats(ctx context.Context, userID uint) (FollowStats, error) {
	var stats FollowStats
	db := readDB(r.db).WithContext(ctx)

	if err := db.Model(&models.Follow{}).
		Where("followed_id = ? AND followed_type = ?", userID, models.FollowedTypeUser).
		Count(&stats.Followers).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_type = ?", userID, models.FollowedTypeUser).
		Count(&stats.FollowingUsers).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_type = ?", userID, models.FollowedTypeCommunity).
		Count(&stats.FollowingCommunities).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	return stats, nil
}
