package service

import (
	"context"
	"strings"

	"agrisocial/internal/cache"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
	"agrisocial/internal/validation"
)

type CommunityService struct {
	communityRepo repository.CommunityRepository
	userRepo      repository.UserRepository
}

type CreateCommunityInput struct {
	UserID      uint
	Name        string
	Description string
}

type UpdateCommunityInput struct {
	UserID      uint
	CommunityID uint
	Name        *string
	Description *string
}

func NewCommunityService(communityRepo repository.CommunityRepository, userRepo repository.UserRepository) *CommunityService {
	return &CommunityService{communityRepo: communityRepo, userRepo: userRepo}
}

func (s *CommunityService) ListCommunities(ctx context.Context, limit, offset int) ([]models.CommunityResponse, error) {
	communities, err := s.communityRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewCommunityResponses(communities), nil
}

func (s *CommunityService) SearchCommunities(ctx context.Context, query string, limit, offset int) ([]models.CommunityResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Please provide a search query")
	}
	communities, err := s.communityRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewCommunityResponses(communities), nil
}

func (s *CommunityService) GetCommunity(ctx context.Context, id uint) (*models.CommunityResponse, error) {
	var resp models.CommunityResponse
	err := cache.Aside(ctx, cache.CommunityKey(id), &resp, cache.CommunityTTL, func() error {
		community, err := s.communityRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		resp = models.NewCommunityResponse(community)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCommunity stores the community and makes its creator the first member.
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (_ *models.CommunityResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "community", "create")
	defer span.Finish(&err)

	name, err := validation.ValidateCommunityName(cleanText(in.Name))
	if err != nil {
		return nil, validationErr(err)
	}
	existing, err := s.communityRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Community with this name already exists")
	}

	community := &models.Community{
		Name:        name,
		Description: cleanText(in.Description),
		OwnerID:     in.UserID,
	}
	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventCommunityCreate)

	created, err := s.communityRepo.GetByID(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	resp := models.NewCommunityResponse(created)
	return &resp, nil
}

func (s *CommunityService) UpdateCommunity(ctx context.Context, in UpdateCommunityInput) (*models.CommunityResponse, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if community.OwnerID != in.UserID {
		return nil, models.NewForbiddenError("Only the community owner can update it")
	}

	if in.Name != nil {
		name, err := validation.ValidateCommunityName(cleanText(*in.Name))
		if err != nil {
			return nil, validationErr(err)
		}
		if name != community.Name {
			existing, err := s.communityRepo.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, models.NewConflictError("Community with this name already exists")
			}
			community.Name = name
		}
	}
	if in.Description != nil {
		community.Description = cleanText(*in.Description)
	}

	if err := s.communityRepo.Update(ctx, community); err != nil {
		return nil, err
	}
	cache.InvalidateCommunity(ctx, community.ID)

	resp := models.NewCommunityResponse(community)
	return &resp, nil
}

func (s *CommunityService) DeleteCommunity(ctx context.Context, userID, communityID uint) error {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.OwnerID != userID {
		return models.NewForbiddenError("Only the community owner can delete it")
	}
	detached, err := s.communityRepo.Delete(ctx, communityID)
	if err != nil {
		return err
	}
	forgetAffected(ctx, &repository.Affected{PostIDs: detached, CommunityIDs: []uint{communityID}})
	return nil
}

func (s *CommunityService) JoinCommunity(ctx context.Context, userID, communityID uint) error {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return err
	}
	member, err := s.communityRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member {
		return models.NewConflictError("Already a member of this community")
	}
	if err := s.communityRepo.Join(ctx, communityID, userID); err != nil {
		return err
	}
	cache.InvalidateCommunity(ctx, communityID)
	observability.RecordEvent(observability.EventCommunityJoined)
	return nil
}

func (s *CommunityService) LeaveCommunity(ctx context.Context, userID, communityID uint) error {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	member, err := s.communityRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !member {
		return models.NewConflictError("Not a member of this community")
	}
	if community.OwnerID == userID {
		return models.NewForbiddenError("Community owner cannot leave their own community without deleting it")
	}
	if err := s.communityRepo.Leave(ctx, communityID, userID); err != nil {
		return err
	}
	cache.InvalidateCommunity(ctx, communityID)
	return nil
}

func (s *CommunityService) ListMembers(ctx context.Context, communityID uint) ([]models.UserSummary, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	users, err := s.communityRepo.ListMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *CommunityService) ListJoined(ctx context.Context, userID uint) ([]models.CommunityResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	communities, err := s.communityRepo.ListJoinedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewCommunityResponses(communities), nil
}

func summaries(users []*models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}
