package service

import (
	"context"
	"strings"

	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
	"agrisocial/internal/storage"

	"github.com/shopspring/decimal"
)

const (
	maxItemNameLen    = 100
	maxContactInfoLen = 200
)

// maxPrice is the largest value numeric(12,2) holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

type MarketplaceService struct {
	itemRepo repository.MarketplaceRepository
	store    ImageStore
}

// CreateItemInput carries the raw price text so parsing stays exact.
type CreateItemInput struct {
	UserID      uint
	Name        string
	Description string
	Price       string
	ContactInfo string
	Image       *Upload
}

type UpdateItemInput struct {
	UserID      uint
	ItemID      uint
	Name        *string
	Description *string
	Price       *string
	ContactInfo *string
	Image       *Upload
}

func NewMarketplaceService(itemRepo repository.MarketplaceRepository, store ImageStore) *MarketplaceService {
	return &MarketplaceService{itemRepo: itemRepo, store: store}
}

// ParsePrice accepts a non-negative decimal and rounds it to cents.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, models.NewValidationError("Price must be a valid number")
	}
	if price.IsNegative() {
		return decimal.Zero, models.NewValidationError("Price cannot be negative")
	}
	price = price.Round(2)
	if price.GreaterThan(maxPrice) {
		return decimal.Zero, models.NewValidationError("Price is too large")
	}
	return price, nil
}

func (s *MarketplaceService) ListItems(ctx context.Context, limit, offset int) ([]models.MarketplaceItemResponse, error) {
	items, err := s.itemRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewMarketplaceItemResponses(items), nil
}

func (s *MarketplaceService) GetItem(ctx context.Context, id uint) (*models.MarketplaceItemResponse, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewMarketplaceItemResponse(item)
	return &resp, nil
}

func (s *MarketplaceService) CreateItem(ctx context.Context, in CreateItemInput) (_ *models.MarketplaceItemResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "marketplace", "create")
	defer span.Finish(&err)

	name := cleanText(in.Name)
	if name == "" || strings.TrimSpace(in.Price) == "" {
		return nil, models.NewValidationError("Name and price are required")
	}
	if tooLong(name, maxItemNameLen) {
		return nil, models.NewValidationError("Name too long (max 100 characters)")
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	contact := cleanText(in.ContactInfo)
	if tooLong(contact, maxContactInfoLen) {
		return nil, models.NewValidationError("Contact info too long (max 200 characters)")
	}

	imageURL, err := saveUpload(s.store, storage.KindItem, in.Image)
	if err != nil {
		return nil, err
	}

	item := &models.MarketplaceItem{
		Name:        name,
		Description: cleanText(in.Description),
		Price:       price,
		UserID:      in.UserID,
		ContactInfo: contact,
		ImageURL:    imageURL,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		discardUpload(s.store, imageURL)
		return nil, err
	}
	observability.RecordEvent(observability.EventItemListed)
	return s.GetItem(ctx, item.ID)
}

func (s *MarketplaceService) UpdateItem(ctx context.Context, in UpdateItemInput) (*models.MarketplaceItemResponse, error) {
	item, err := s.itemRepo.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != in.UserID {
		return nil, models.NewForbiddenError("You are not authorized to update this item")
	}

	if in.Name != nil {
		name := cleanText(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name cannot be empty")
		}
		if tooLong(name, maxItemNameLen) {
			return nil, models.NewValidationError("Name too long (max 100 characters)")
		}
		item.Name = name
	}
	if in.Description != nil {
		item.Description = cleanText(*in.Description)
	}
	if in.Price != nil {
		price, err := ParsePrice(*in.Price)
		if err != nil {
			return nil, err
		}
		item.Price = price
	}
	if in.ContactInfo != nil {
		contact := cleanText(*in.ContactInfo)
		if tooLong(contact, maxContactInfoLen) {
			return nil, models.NewValidationError("Contact info too long (max 200 characters)")
		}
		item.ContactInfo = contact
	}

	oldImage := item.ImageURL
	newImage, err := saveUpload(s.store, storage.KindItem, in.Image)
	if err != nil {
		return nil, err
	}
	if newImage != "" {
		item.ImageURL = newImage
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		discardUpload(s.store, newImage)
		return nil, err
	}
	if newImage != "" {
		discardUpload(s.store, oldImage)
	}

	resp := models.NewMarketplaceItemResponse(item)
	return &resp, nil
}

func (s *MarketplaceService) DeleteItem(ctx context.Context, userID, itemID uint) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return models.NewForbiddenError("You are not authorized to delete this item")
	}
	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return err
	}
	discardUpload(s.store, item.ImageURL)
	return nil
}
