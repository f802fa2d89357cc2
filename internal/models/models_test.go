package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Status(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("nope"), fiber.StatusUnauthorized},
		{NewForbiddenError("mine"), fiber.StatusForbidden},
		{NewNotFoundError("Post", 3), fiber.StatusNotFound},
		{NewConflictError("dup"), fiber.StatusConflict},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	root := errors.New("disk full")
	err := NewInternalError(root)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "Internal server error: disk full", err.Error())
}

func TestRespondWithError_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusConflict, NewConflictError("Username already exists"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already exists", out.Message)
	assert.Equal(t, CodeConflict, out.Code)
}

func TestNewPostResponse(t *testing.T) {
	community := uint(4)
	p := &Post{
		ID:          9,
		Title:       "Maize planting",
		Content:     "Rows 75cm apart",
		UserID:      2,
		User:        &User{ID: 2, Username: "amina"},
		CommunityID: &community,
		Likes:       []PostLike{{UserID: 5}, {UserID: 7}},
	}

	resp := NewPostResponse(p)
	assert.Equal(t, "amina", resp.AuthorUsername)
	assert.Equal(t, []uint{5, 7}, resp.Likes)
	assert.Equal(t, 2, resp.LikesCount)
	assert.Equal(t, &community, resp.CommunityID)
	assert.True(t, p.LikedBy(7))
	assert.False(t, p.LikedBy(2))
}

func TestNewPostResponse_EmptyLikesSerializeAsArray(t *testing.T) {
	raw, err := json.Marshal(NewPostResponse(&Post{ID: 1}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"likes":[]`)
}

func TestNewMarketplaceItemResponse_PriceFormatting(t *testing.T) {
	item := &MarketplaceItem{
		Name:  "Tomato seedlings",
		Price: decimal.RequireFromString("12.5"),
		User:  &User{Username: "kofi"},
	}
	resp := NewMarketplaceItemResponse(item)
	assert.Equal(t, "12.50", resp.Price)
	assert.Equal(t, "kofi", resp.SellerUsername)
}

func TestNewMessageResponse_Targets(t *testing.T) {
	receiver := uint(3)
	direct := NewMessageResponse(&Message{
		SenderID:   1,
		Sender:     &User{Username: "a"},
		ReceiverID: &receiver,
		Receiver:   &User{Username: "b"},
		Text:       "hello",
	})
	require.NotNil(t, direct.ReceiverUsername)
	assert.Equal(t, "b", *direct.ReceiverUsername)
	assert.Nil(t, direct.CommunityName)

	community := uint(8)
	group := NewMessageResponse(&Message{
		SenderID:    1,
		CommunityID: &community,
		Community:   &Community{Name: "Dairy"},
	})
	require.NotNil(t, group.CommunityName)
	assert.Equal(t, "Dairy", *group.CommunityName)
	assert.Nil(t, group.ReceiverUsername)
}

func TestFollowedType_Valid(t *testing.T) {
	assert.True(t, FollowedTypeUser.Valid())
	assert.True(t, FollowedTypeCommunity.Valid())
	assert.False(t, FollowedType("farm").Valid())
}
