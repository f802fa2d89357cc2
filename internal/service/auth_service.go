package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"agrisocial/internal/cache"
	"agrisocial/internal/middleware"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
	"agrisocial/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts and issues access tokens.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	// Username may also hold the account email.
	Username string
	Password string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "auth", "register")
	defer span.Finish(&err)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Missing username, email, or password")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, validationErr(err)
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, validationErr(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, validationErr(err)
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already exists")
	}
	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventUserRegistered)
	return user, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	login := strings.TrimSpace(in.Username)
	if login == "" || in.Password == "" {
		return nil, "", models.NewValidationError("Missing username or password")
	}

	user, err := s.userRepo.GetByUsername(ctx, login)
	if err != nil {
		return nil, "", err
	}
	if user == nil && strings.Contains(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(login))
		if err != nil {
			return nil, "", err
		}
	}
	if user == nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := middleware.IssueToken(s.jwtSecret, user.ID, user.Username, s.tokenTTL)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// Logout revokes a token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return models.NewValidationError("Token has no identifier")
	}
	if err := cache.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CurrentUser resolves the account behind a verified token.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Invalid token or user not found")
		}
		return nil, err
	}
	return user, nil
}
