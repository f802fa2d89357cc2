package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketplaceItem is a produce or equipment listing offered by a seller.
type MarketplaceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"-"`
	ContactInfo string          `gorm:"size:200" json:"contact_info"`
	ImageURL    string          `gorm:"size:255" json:"image_url"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"-"`
}

// TableName specifies the table name for GORM.
func (MarketplaceItem) TableName() string {
	return "marketplace_items"
}

// MarketplaceItemResponse is the serialized form of a listing.
type MarketplaceItemResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          string    `json:"price"`
	UserID         uint      `json:"user_id"`
	SellerUsername string    `json:"seller_username"`
	ContactInfo    string    `json:"contact_info"`
	ImageURL       string    `json:"image_url"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewMarketplaceItemResponse(item *MarketplaceItem) MarketplaceItemResponse {
	resp := MarketplaceItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price.StringFixed(2),
		UserID:      item.UserID,
		ContactInfo: item.ContactInfo,
		ImageURL:    item.ImageURL,
		CreatedAt:   item.CreatedAt,
	}
	if item.User != nil {
		resp.SellerUsername = item.User.Username
	}
	return resp
}

func NewMarketplaceItemResponses(items []*MarketplaceItem) []MarketplaceItemResponse {
	out := make([]MarketplaceItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewMarketplaceItemResponse(item))
	}
	return out
}
