package repository

import (
	"context"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error)
	UpdateText(ctx context.Context, id uint, text string) error
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, commentID, userID uint) (bool, error)
	Like(ctx context.Context, commentID, userID uint) error
	Unlike(ctx context.Context, commentID, userID uint) error
	CountLikes(ctx context.Context, commentID uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func withCommentDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select("comments.*, (SELECT COUNT(*) FROM comments AS replies WHERE replies.parent_comment_id = comments.id) AS reply_count").
		Preload("User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := withCommentDetails(readDB(r.db).WithContext(ctx)).First(&comment, id).Error; err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := withCommentDetails(readDB(r.db).WithContext(ctx)).
		Where("comments.post_id = ? AND comments.parent_comment_id IS NULL", postID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := withCommentDetails(readDB(r.db).WithContext(ctx)).
		Where("comments.parent_comment_id = ?", parentID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateText(ctx context.Context, id uint, text string) error {
	if err := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("text", text).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the comment together with its replies and their likes.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCommentsTx(tx, []uint{id})
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) IsLiked(ctx context.Context, commentID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *commentRepository) Like(ctx context.Context, commentID, userID uint) error {
	if err := r.db.WithContext(ctx).Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("You have already liked this comment")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Unlike(ctx context.Context, commentID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentLike{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("You have not liked this comment")
	}
	return nil
}

func (r *commentRepository) CountLikes(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
