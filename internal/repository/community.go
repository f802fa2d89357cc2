package repository

import (
	"context"
	"errors"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// CommunityRepository persists communities and their memberships.
type CommunityRepository interface {
	// Create inserts the community and enrolls its owner as the first member.
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]*models.Community, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	// Delete removes the community and returns the ids of the posts it detached.
	Delete(ctx context.Context, id uint) ([]uint, error)

	Join(ctx context.Context, communityID, userID uint) error
	Leave(ctx context.Context, communityID, userID uint) error
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	ListMembers(ctx context.Context, communityID uint) ([]*models.User, error)
	ListJoinedBy(ctx context.Context, userID uint) ([]*models.Community, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func withCommunityDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select("communities.*, (SELECT COUNT(*) FROM community_memberships WHERE community_memberships.community_id = communities.id) AS member_count").
		Preload("Owner")
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMembership{
			UserID:      community.OwnerID,
			CommunityID: community.ID,
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Community name already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := withCommunityDetails(readDB(r.db).WithContext(ctx)).First(&community, id).Error; err != nil {
		return nil, lookupError(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := readDB(r.db).WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	q := withCommunityDetails(readDB(r.db).WithContext(ctx)).Order("communities.name ASC")
	if err := page(q, limit, offset).Find(&communities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	like := likePattern(query)
	q := withCommunityDetails(readDB(r.db).WithContext(ctx)).
		Where("LOWER(communities.name) LIKE ? OR LOWER(communities.description) LIKE ?", like, like).
		Order("communities.name ASC")
	if err := page(q, limit, offset).Find(&communities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Model(&models.Community{ID: community.ID}).Updates(map[string]any{
		"name":        community.Name,
		"description": community.Description,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Community name already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var detached []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		detached, err = deleteCommunityTx(tx, id)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return detached, nil
}

func (r *communityRepository) Join(ctx context.Context, communityID, userID uint) error {
	m := &models.CommunityMembership{UserID: userID, CommunityID: communityID}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("You are already a member of this community")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) Leave(ctx context.Context, communityID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMembership{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("You are not a member of this community")
	}
	return nil
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *communityRepository) ListMembers(ctx context.Context, communityID uint) ([]*models.User, error) {
	var users []*models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN community_memberships ON community_memberships.user_id = users.id").
		Where("community_memberships.community_id = ?", communityID).
		Order("community_memberships.joined_at ASC, users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *communityRepository) ListJoinedBy(ctx context.Context, userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	err := withCommunityDetails(readDB(r.db).WithContext(ctx)).
		Joins("JOIN community_memberships cm ON cm.community_id = communities.id").
		Where("cm.user_id = ?", userID).
		Order("communities.name ASC").
		Find(&communities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}
