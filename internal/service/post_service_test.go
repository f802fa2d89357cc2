package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopUserRepo(), noopCommunityRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{name: "empty title", input: CreatePostInput{UserID: 1, Content: "soil notes"}},
		{name: "empty content", input: CreatePostInput{UserID: 1, Title: "Soil"}},
		{name: "markup only title", input: CreatePostInput{UserID: 1, Title: "<script></script>", Content: "c"}},
		{name: "title too long", input: CreatePostInput{UserID: 1, Title: strings.Repeat("x", maxTitleLen+1), Content: "c"}},
		{name: "content too long", input: CreatePostInput{UserID: 1, Title: "T", Content: strings.Repeat("x", maxContentLen+1)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_UnknownCommunity(t *testing.T) {
	t.Parallel()

	communities := noopCommunityRepo()
	communities.getByIDFn = func(_ context.Context, id uint) (*models.Community, error) {
		return nil, notFound("Community", id)
	}
	store := &storeStub{}
	svc := NewPostService(noopPostRepo(), noopUserRepo(), communities, store)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:      1,
		Title:       "Tomatoes",
		Content:     "Blight again",
		CommunityID: uintPtr(42),
		Image:       &Upload{Filename: "a.png"},
	})
	assertAppError(t, err, models.CodeNotFound)
	assert.Empty(t, store.saved)
}

func TestPostService_CreatePost_Success(t *testing.T) {
	t.Parallel()

	var created *models.Post
	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 10
		created = p
		return nil
	}
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		require.NotNil(t, created)
		return created, nil
	}
	store := &storeStub{}
	svc := NewPostService(posts, noopUserRepo(), noopCommunityRepo(), store)

	resp, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:  3,
		Title:   "  Compost <b>tips</b> ",
		Content: "Turn it weekly",
		Image:   &Upload{Filename: "heap.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), resp.ID)
	assert.Equal(t, "Compost tips", resp.Title)
	assert.Equal(t, "/uploads/posts/heap.png", resp.ImageURL)
	assert.Equal(t, uint(3), resp.UserID)
}

func TestPostService_CreatePost_FailedWriteDiscardsImage(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, _ *models.Post) error {
		return models.NewInternalError(errors.New("db down"))
	}
	store := &storeStub{}
	svc := NewPostService(posts, noopUserRepo(), noopCommunityRepo(), store)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1, Title: "T", Content: "C", Image: &Upload{Filename: "x.png"},
	})
	assertAppError(t, err, models.CodeInternal)
	assert.Equal(t, []string{"/uploads/posts/x.png"}, store.removed)
}

func TestPostService_Ownership(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Title: "T", Content: "C", ImageURL: "/uploads/posts/p.png"}, nil
	}
	deleted := false
	posts.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	store := &storeStub{}
	svc := NewPostService(posts, noopUserRepo(), noopCommunityRepo(), store)
	ctx := context.Background()

	_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 2, PostID: 5, Title: strPtr("Mine now")})
	assertAppError(t, err, models.CodeForbidden)

	err = svc.DeletePost(ctx, DeletePostInput{UserID: 2, PostID: 5})
	assertAppError(t, err, models.CodeForbidden)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: 1, PostID: 5}))
	assert.True(t, deleted)
	assert.Equal(t, []string{"/uploads/posts/p.png"}, store.removed)
}

func TestPostService_UpdatePost_PartialFields(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Title: "Old title", Content: "Old content"}, nil
	}
	var saved *models.Post
	posts.updateFn = func(_ context.Context, p *models.Post) error {
		saved = p
		return nil
	}
	svc := NewPostService(posts, noopUserRepo(), noopCommunityRepo(), nil)

	resp, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 5, Content: strPtr("New content")})
	require.NoError(t, err)
	assert.Equal(t, "Old title", resp.Title)
	assert.Equal(t, "New content", resp.Content)
	assert.Equal(t, "New content", saved.Content)

	_, err = svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 5, Title: strPtr(" ")})
	assertValidationError(t, err)
}

func TestPostService_LikeUnlike(t *testing.T) {
	t.Parallel()

	likes := map[uint]bool{}
	posts := noopPostRepo()
	posts.isLikedFn = func(_ context.Context, _, userID uint) (bool, error) { return likes[userID], nil }
	posts.likeFn = func(_ context.Context, _, userID uint) error {
		likes[userID] = true
		return nil
	}
	posts.unlikeFn = func(_ context.Context, _, userID uint) error {
		delete(likes, userID)
		return nil
	}
	posts.countLikesFn = func(_ context.Context, _ uint) (int64, error) { return int64(len(likes)), nil }
	svc := NewPostService(posts, noopUserRepo(), noopCommunityRepo(), nil)
	ctx := context.Background()

	count, err := svc.LikePost(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.LikePost(ctx, 1, 9)
	appErr := assertAppError(t, err, models.CodeConflict)
	assert.Equal(t, "You have already liked this post", appErr.Message)

	count, err = svc.UnlikePost(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = svc.UnlikePost(ctx, 1, 9)
	assertAppError(t, err, models.CodeConflict)
}

func TestPostService_Lists_CheckParents(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) { return nil, notFound("User", id) }
	communities := noopCommunityRepo()
	communities.getByIDFn = func(_ context.Context, id uint) (*models.Community, error) {
		return nil, notFound("Community", id)
	}
	svc := NewPostService(noopPostRepo(), users, communities, nil)
	ctx := context.Background()

	_, err := svc.GetUserPosts(ctx, 4, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.GetCommunityPosts(ctx, 4, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.SearchPosts(ctx, "", 10, 0)
	assertValidationError(t, err)
}
