package service

import (
	"context"
	"errors"

	"agrisocial/internal/cache"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID          uint
	PostID          uint
	Text            string
	ParentCommentID *uint
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Text      string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// ListComments returns the post's top-level comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.CommentResponse, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListTopLevel(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.NewCommentResponses(comments), nil
}

func (s *CommentService) ListReplies(ctx context.Context, commentID uint) ([]models.CommentResponse, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	replies, err := s.commentRepo.ListReplies(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return models.NewCommentResponses(replies), nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.CommentResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "comment", "create")
	defer span.Finish(&err)

	text := cleanText(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if tooLong(text, maxCommentLen) {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	if in.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			if isNotFound(err) {
				return nil, models.NewValidationError("Invalid parent comment ID for this post")
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Invalid parent comment ID for this post")
		}
		if parent.IsReply() {
			return nil, models.NewValidationError("Replies can only be added to top-level comments")
		}
	}

	comment := &models.Comment{
		PostID:          in.PostID,
		UserID:          in.UserID,
		Text:            text,
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, in.PostID)
	observability.RecordEvent(observability.EventCommentCreated)

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := models.NewCommentResponse(created)
	return &resp, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.CommentResponse, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You are not authorized to update this comment")
	}

	text := cleanText(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if tooLong(text, maxCommentLen) {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if err := s.commentRepo.UpdateText(ctx, comment.ID, text); err != nil {
		return nil, err
	}
	comment.Text = text

	resp := models.NewCommentResponse(comment)
	return &resp, nil
}

// DeleteComment is allowed for the comment author and the post owner.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.UserID != in.UserID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != in.UserID {
			return models.NewForbiddenError("You are not authorized to delete this comment")
		}
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) (int64, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return 0, err
	}
	liked, err := s.commentRepo.IsLiked(ctx, commentID, userID)
	if err != nil {
		return 0, err
	}
	if liked {
		return 0, models.NewConflictError("You have already liked this comment")
	}
	if err := s.commentRepo.Like(ctx, commentID, userID); err != nil {
		return 0, err
	}
	observability.RecordEvent(observability.EventCommentLiked)
	return s.commentRepo.CountLikes(ctx, commentID)
}

func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) (int64, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return 0, err
	}
	if err := s.commentRepo.Unlike(ctx, commentID, userID); err != nil {
		return 0, err
	}
	return s.commentRepo.CountLikes(ctx, commentID)
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
