package repository

import (
	"context"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// MessageRepository persists direct and community messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// Conversation returns both directions between two users, oldest first,
	// after marking the messages userID received from otherID as read.
	Conversation(ctx context.Context, userID, otherID uint) ([]*models.Message, error)
	ListCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Message, error)
	ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error)
	ListReceived(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func withMessageDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender").Preload("Receiver").Preload("Community")
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := withMessageDetails(r.db.WithContext(ctx)).First(&message, id).Error; err != nil {
		return nil, lookupError(err, "Message", id)
	}
	return &message, nil
}

func (r *messageRepository) Conversation(ctx context.Context, userID, otherID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, userID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}
		return withMessageDetails(tx).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, otherID, otherID, userID).
			Order(oldestFirst).
			Find(&messages).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	q := withMessageDetails(readDB(r.db).WithContext(ctx)).Where("community_id = ?", communityID).Order(oldestFirst)
	if err := page(q, limit, offset).Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	q := withMessageDetails(readDB(r.db).WithContext(ctx)).Where("sender_id = ?", userID).Order(newestFirst)
	if err := page(q, limit, offset).Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListReceived(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	q := withMessageDetails(readDB(r.db).WithContext(ctx)).Where("receiver_id = ?", userID).Order(newestFirst)
	if err := page(q, limit, offset).Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Message{ID: id}).Update("is_read", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
