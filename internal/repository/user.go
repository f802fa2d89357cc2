package repository

import (
	"context"
	"errors"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user with every dependent row and reports the
	// orphaned uploads and the rows whose cached views are now stale.
	Delete(ctx context.Context, id uint) (*Affected, error)
	// Authored lists the posts and owned communities that render the user's name.
	Authored(ctx context.Context, id uint) (*Affected, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).Updates(map[string]any{
		"username":            user.Username,
		"email":               user.Email,
		"password":            user.Password,
		"bio":                 user.Bio,
		"profile_picture_url": user.ProfilePictureURL,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (*Affected, error) {
	var affected *Affected
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		affected, err = deleteUserTx(tx, id)
		return err
	})
	if err != nil {
		return nil, lookupError(err, "User", id)
	}
	return affected, nil
}

func (r *userRepository) Authored(ctx context.Context, id uint) (*Affected, error) {
	db := readDB(r.db).WithContext(ctx)
	affected := &Affected{UserIDs: []uint{id}}
	if err := db.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &affected.PostIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Community{}).Where("owner_id = ?", id).Pluck("id", &affected.CommunityIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return affected, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	if err := page(readDB(r.db).WithContext(ctx).Order("id ASC"), limit, offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	like := likePattern(query)
	err := page(readDB(r.db).WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like).
		Order("username ASC"), limit, offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
