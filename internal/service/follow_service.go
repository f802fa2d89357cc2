package service

import (
	"context"
	"fmt"

	"agrisocial/internal/cache"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
)

type FollowService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
}

type FollowInput struct {
	FollowerID   uint
	FollowedID   uint
	FollowedType models.FollowedType
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	communityRepo repository.CommunityRepository,
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, communityRepo: communityRepo}
}

// checkTarget validates the input and confirms the followed entity exists.
// It returns the display name of the target.
func (s *FollowService) checkTarget(ctx context.Context, in FollowInput, self string) (string, error) {
	if in.FollowedID == 0 || in.FollowedType == "" {
		return "", models.NewValidationError("Missing followed_id or followed_type")
	}
	if !in.FollowedType.Valid() {
		return "", models.NewValidationError("Invalid followed_type")
	}

	if in.FollowedType == models.FollowedTypeUser {
		if in.FollowedID == in.FollowerID {
			return "", models.NewValidationError(self)
		}
		user, err := s.userRepo.GetByID(ctx, in.FollowedID)
		if err != nil {
			return "", err
		}
		return user.Username, nil
	}

	community, err := s.communityRepo.GetByID(ctx, in.FollowedID)
	if err != nil {
		return "", err
	}
	return community.Name, nil
}

func (s *FollowService) invalidate(ctx context.Context, in FollowInput) {
	cache.InvalidateUser(ctx, in.FollowerID)
	if in.FollowedType == models.FollowedTypeUser {
		cache.InvalidateUser(ctx, in.FollowedID)
	}
}

// Follow records the follow and returns a confirmation message.
func (s *FollowService) Follow(ctx context.Context, in FollowInput) (string, error) {
	name, err := s.checkTarget(ctx, in, "You cannot follow yourself")
	if err != nil {
		return "", err
	}
	following, err := s.followRepo.IsFollowing(ctx, in.FollowerID, in.FollowedID, in.FollowedType)
	if err != nil {
		return "", err
	}
	if following {
		return "", models.NewConflictError(fmt.Sprintf("Already following this %s", in.FollowedType))
	}
	if err := s.followRepo.Follow(ctx, in.FollowerID, in.FollowedID, in.FollowedType); err != nil {
		return "", err
	}
	s.invalidate(ctx, in)
	observability.RecordEvent(observability.EventFollowCreated)
	return "Successfully followed " + name, nil
}

func (s *FollowService) Unfollow(ctx context.Context, in FollowInput) (string, error) {
	name, err := s.checkTarget(ctx, in, "You cannot unfollow yourself")
	if err != nil {
		return "", err
	}
	following, err := s.followRepo.IsFollowing(ctx, in.FollowerID, in.FollowedID, in.FollowedType)
	if err != nil {
		return "", err
	}
	if !following {
		return "", models.NewConflictError(fmt.Sprintf("Not currently following this %s", in.FollowedType))
	}
	if err := s.followRepo.Unfollow(ctx, in.FollowerID, in.FollowedID, in.FollowedType); err != nil {
		return "", err
	}
	s.invalidate(ctx, in)
	return "Successfully unfollowed " + name, nil
}

// IsFollowing reports whether viewerID follows userID. Users never follow themselves.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, userID uint) (bool, error) {
	if viewerID == userID {
		return false, nil
	}
	return s.followRepo.IsFollowing(ctx, viewerID, userID, models.FollowedTypeUser)
}

func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *FollowService) FollowingUsers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.FollowingUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *FollowService) FollowingCommunities(ctx context.Context, userID uint) ([]models.CommunityResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	communities, err := s.followRepo.FollowingCommunities(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewCommunityResponses(communities), nil
}
