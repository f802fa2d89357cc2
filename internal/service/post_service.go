package service

import (
	"context"
	"strings"

	"agrisocial/internal/cache"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
	"agrisocial/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 200
	maxContentLen = 50000
)

type PostService struct {
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
	store         ImageStore
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Content     string
	CommunityID *uint
	Image       *Upload
}

// UpdatePostInput is a partial update; nil fields are left as they are.
type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   *string
	Content *string
	Image   *Upload
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	communityRepo repository.CommunityRepository,
	store ImageStore,
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		store:         store,
	}
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]models.PostResponse, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewPostResponses(posts), nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int) ([]models.PostResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewPostResponses(posts), nil
}

func (s *PostService) GetCommunityPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.PostResponse, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByCommunity(ctx, communityID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewPostResponses(posts), nil
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]models.PostResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Please provide a search query")
	}
	posts, err := s.postRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewPostResponses(posts), nil
}

// GetPost serves the post from cache when possible.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.PostResponse, error) {
	var resp models.PostResponse
	err := cache.Aside(ctx, cache.PostKey(id), &resp, cache.PostTTL, func() error {
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		resp = models.NewPostResponse(post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.PostResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "create",
		attribute.Int64("user.id", int64(in.UserID)))
	defer span.Finish(&err)

	title := cleanText(in.Title)
	content := cleanText(in.Content)
	if title == "" || content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}
	if tooLong(title, maxTitleLen) {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if tooLong(content, maxContentLen) {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if in.CommunityID != nil {
		if _, err := s.communityRepo.GetByID(ctx, *in.CommunityID); err != nil {
			return nil, err
		}
	}

	imageURL, err := saveUpload(s.store, storage.KindPost, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       title,
		Content:     content,
		ImageURL:    imageURL,
		UserID:      in.UserID,
		CommunityID: in.CommunityID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		discardUpload(s.store, imageURL)
		return nil, err
	}
	observability.RecordEvent(observability.EventPostCreated)

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	resp := models.NewPostResponse(created)
	return &resp, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostResponse, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You are not authorized to update this post")
	}

	if in.Title != nil {
		title := cleanText(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		if tooLong(title, maxTitleLen) {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		post.Title = title
	}
	if in.Content != nil {
		content := cleanText(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be empty")
		}
		if tooLong(content, maxContentLen) {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		post.Content = content
	}

	oldImage := post.ImageURL
	newImage, err := saveUpload(s.store, storage.KindPost, in.Image)
	if err != nil {
		return nil, err
	}
	if newImage != "" {
		post.ImageURL = newImage
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		discardUpload(s.store, newImage)
		return nil, err
	}
	if newImage != "" {
		discardUpload(s.store, oldImage)
	}
	cache.InvalidatePost(ctx, post.ID)

	resp := models.NewPostResponse(post)
	return &resp, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "post", "delete")
	defer span.Finish(&err)

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		return models.NewForbiddenError("You are not authorized to delete this post")
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	discardUpload(s.store, post.ImageURL)
	cache.InvalidatePost(ctx, in.PostID)
	return nil
}

// LikePost adds the user's like and returns the new like count.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	liked, err := s.postRepo.IsLiked(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if liked {
		return 0, models.NewConflictError("You have already liked this post")
	}
	if err := s.postRepo.Like(ctx, postID, userID); err != nil {
		return 0, err
	}
	cache.InvalidatePost(ctx, postID)
	observability.RecordEvent(observability.EventPostLiked)
	return s.postRepo.CountLikes(ctx, postID)
}

// UnlikePost removes the user's like and returns the new like count.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) (int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	liked, err := s.postRepo.IsLiked(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if !liked {
		return 0, models.NewConflictError("You have not liked this post")
	}
	if err := s.postRepo.Unlike(ctx, postID, userID); err != nil {
		return 0, err
	}
	cache.InvalidatePost(ctx, postID)
	return s.postRepo.CountLikes(ctx, postID)
}
