package service

import (
	"context"
	"testing"
	"time"

	"agrisocial/internal/middleware"
	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-with-enough-entropy"

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(noopUserRepo(), testSecret, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{name: "missing username", input: RegisterInput{Email: "a@b.io", Password: "password1"}},
		{name: "missing email", input: RegisterInput{Username: "grower", Password: "password1"}},
		{name: "missing password", input: RegisterInput{Username: "grower", Email: "a@b.io"}},
		{name: "short username", input: RegisterInput{Username: "ab", Email: "a@b.io", Password: "password1"}},
		{name: "bad username chars", input: RegisterInput{Username: "grow er!", Email: "a@b.io", Password: "password1"}},
		{name: "bad email", input: RegisterInput{Username: "grower", Email: "not-an-email", Password: "password1"}},
		{name: "short password", input: RegisterInput{Username: "grower", Email: "a@b.io", Password: "pw1"}},
		{name: "password without digit", input: RegisterInput{Username: "grower", Email: "a@b.io", Password: "passwordonly"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Register(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	input := RegisterInput{Username: "grower", Email: "grower@farm.io", Password: "password1"}

	t.Run("username taken", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 9}, nil
		}
		_, err := NewAuthService(repo, testSecret, time.Hour).Register(ctx, input)
		appErr := assertAppError(t, err, models.CodeConflict)
		assert.Equal(t, "Username already exists", appErr.Message)
	})

	t.Run("email taken", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 9}, nil
		}
		_, err := NewAuthService(repo, testSecret, time.Hour).Register(ctx, input)
		appErr := assertAppError(t, err, models.CodeConflict)
		assert.Equal(t, "Email already registered", appErr.Message)
	})
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	t.Parallel()

	var stored *models.User
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 1
		stored = u
		return nil
	}

	user, err := NewAuthService(repo, testSecret, time.Hour).Register(context.Background(), RegisterInput{
		Username: " grower ",
		Email:    "Grower@Farm.IO",
		Password: "password1",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "grower", user.Username)
	assert.Equal(t, "grower@farm.io", user.Email)
	assert.NotEqual(t, "password1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password1")))
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.User{ID: 7, Username: "grower", Email: "grower@farm.io", Password: string(hashed)}

	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		if name == account.Username {
			return account, nil
		}
		return nil, nil
	}
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == account.Email {
			return account, nil
		}
		return nil, nil
	}
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		t.Parallel()
		user, token, err := svc.Login(ctx, LoginInput{Username: "grower", Password: "password1"})
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)

		claims, err := middleware.ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "grower", claims.Username)
	})

	t.Run("by email", func(t *testing.T) {
		t.Parallel()
		user, _, err := svc.Login(ctx, LoginInput{Username: "GROWER@farm.io", Password: "password1"})
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		_, _, err := svc.Login(ctx, LoginInput{Username: "grower", Password: "password2"})
		appErr := assertAppError(t, err, models.CodeUnauthorized)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		_, _, err := svc.Login(ctx, LoginInput{Username: "nobody", Password: "password1"})
		assertAppError(t, err, models.CodeUnauthorized)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		_, _, err := svc.Login(ctx, LoginInput{Username: "grower"})
		assertValidationError(t, err)
	})
}

func TestAuthService_CurrentUser_MissingAccount(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, notFound("User", id)
	}
	_, err := NewAuthService(repo, testSecret, time.Hour).CurrentUser(context.Background(), 3)
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestAuthService_Logout_RequiresTokenID(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(noopUserRepo(), testSecret, time.Hour)
	assertValidationError(t, svc.Logout(context.Background(), "", time.Now().Add(time.Hour)))
	assert.NoError(t, svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour)))
}
