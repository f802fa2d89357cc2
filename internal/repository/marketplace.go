package repository

import (
	"context"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// MarketplaceRepository persists marketplace listings.
type MarketplaceRepository interface {
	Create(ctx context.Context, item *models.MarketplaceItem) error
	GetByID(ctx context.Context, id uint) (*models.MarketplaceItem, error)
	List(ctx context.Context, limit, offset int) ([]*models.MarketplaceItem, error)
	Update(ctx context.Context, item *models.MarketplaceItem) error
	Delete(ctx context.Context, id uint) error
}

type marketplaceRepository struct {
	db *gorm.DB
}

func NewMarketplaceRepository(db *gorm.DB) MarketplaceRepository {
	return &marketplaceRepository{db: db}
}

func (r *marketplaceRepository) Create(ctx context.Context, item *models.MarketplaceItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *marketplaceRepository) GetByID(ctx context.Context, id uint) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := readDB(r.db).WithContext(ctx).Preload("User").First(&item, id).Error; err != nil {
		return nil, lookupError(err, "Item", id)
	}
	return &item, nil
}

func (r *marketplaceRepository) List(ctx context.Context, limit, offset int) ([]*models.MarketplaceItem, error) {
	var items []*models.MarketplaceItem
	q := readDB(r.db).WithContext(ctx).Preload("User").Order(newestFirst)
	if err := page(q, limit, offset).Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *marketplaceRepository) Update(ctx context.Context, item *models.MarketplaceItem) error {
	err := r.db.WithContext(ctx).Model(&models.MarketplaceItem{ID: item.ID}).Updates(map[string]any{
		"name":         item.Name,
		"description":  item.Description,
		"price":        item.Price,
		"contact_info": item.ContactInfo,
		"image_url":    item.ImageURL,
	}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *marketplaceRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.MarketplaceItem{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
