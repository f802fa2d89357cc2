package service

import (
	"context"
	"log/slog"
	"strings"

	"agrisocial/internal/cache"
	"agrisocial/internal/middleware"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
	"agrisocial/internal/storage"
	"agrisocial/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const maxBioLen = 2000

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	store      ImageStore
}

// UpdateProfileInput carries the fields a user may change. Nil means unchanged.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Email    *string
	Bio      *string
	Password *string
	Avatar   *Upload
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, store ImageStore) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, store: store}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Please provide a search query")
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// GetProfile returns the user with follow statistics. viewerID may be zero
// for anonymous requests.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := cache.Aside(ctx, cache.UserKey(id), &profile, cache.UserTTL, func() error {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		stats, err := s.followRepo.Stats(ctx, id)
		if err != nil {
			return err
		}
		profile = models.UserProfile{
			User:                      *user,
			FollowersCount:            stats.Followers,
			FollowingUsersCount:       stats.FollowingUsers,
			FollowingCommunitiesCount: stats.FollowingCommunities,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile.IsFollowedByCurrentUser = false
	if viewerID != 0 && viewerID != id {
		following, err := s.followRepo.IsFollowing(ctx, viewerID, id, models.FollowedTypeUser)
		if err != nil {
			return nil, err
		}
		profile.IsFollowedByCurrentUser = following
	}
	return &profile, nil
}

// UpdateProfile applies the changed fields. The returned bool is false when
// the input matched the stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (_ *models.User, changed bool, err error) {
	ctx, span := observability.StartSpan(ctx, "user", "update_profile")
	defer span.Finish(&err)

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, false, err
	}

	renamed := false
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			if err := validation.ValidateUsername(username); err != nil {
				return nil, false, validationErr(err)
			}
			taken, err := s.userRepo.GetByUsername(ctx, username)
			if err != nil {
				return nil, false, err
			}
			if taken != nil {
				return nil, false, models.NewConflictError("Username already taken")
			}
			user.Username = username
			renamed = true
			changed = true
		}
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, false, validationErr(err)
			}
			taken, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, false, err
			}
			if taken != nil {
				return nil, false, models.NewConflictError("Email already taken")
			}
			user.Email = email
			changed = true
		}
	}

	if in.Bio != nil {
		bio := cleanText(*in.Bio)
		if tooLong(bio, maxBioLen) {
			return nil, false, models.NewValidationError("Bio too long (max 2000 characters)")
		}
		if bio != user.Bio {
			user.Bio = bio
			changed = true
		}
	}

	if in.Password != nil && *in.Password != "" {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, false, validationErr(err)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, models.NewInternalError(err)
		}
		user.Password = string(hashed)
		changed = true
	}

	oldAvatar := user.ProfilePictureURL
	newAvatar, err := saveUpload(s.store, storage.KindAvatar, in.Avatar)
	if err != nil {
		return nil, false, err
	}
	if newAvatar != "" {
		user.ProfilePictureURL = newAvatar
		changed = true
	}

	if !changed {
		return user, false, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		discardUpload(s.store, newAvatar)
		return nil, false, err
	}
	if newAvatar != "" {
		discardUpload(s.store, oldAvatar)
	}
	s.forgetProfile(ctx, user.ID, renamed)
	return user, true, nil
}

// DeleteAccount removes the user with all dependent rows and their uploads.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "user", "delete")
	defer span.Finish(&err)

	affected, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	for _, url := range affected.Uploads {
		discardUpload(s.store, url)
	}
	forgetAffected(ctx, affected)
	observability.RecordEvent(observability.EventUserDeleted)
	return nil
}

// forgetProfile drops the cached profile. A rename also drops the posts and
// communities that embed the old username.
func (s *UserService) forgetProfile(ctx context.Context, userID uint, renamed bool) {
	cache.InvalidateUser(ctx, userID)
	if !renamed {
		return
	}
	authored, err := s.userRepo.Authored(ctx, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation after rename failed",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		return
	}
	forgetAffected(ctx, authored)
}
