package server

import (
	"agrisocial/internal/models"
	"agrisocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.follow(c, service.FollowInput{
		FollowerID:   currentUserID(c),
		FollowedID:   id,
		FollowedType: models.FollowedTypeUser,
	})
}

// UnfollowUser handles DELETE /api/users/:id/unfollow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.unfollow(c, service.FollowInput{
		FollowerID:   currentUserID(c),
		FollowedID:   id,
		FollowedType: models.FollowedTypeUser,
	})
}

type followRequest struct {
	FollowedID   uint   `json:"followed_id"`
	FollowedType string `json:"followed_type"`
}

func (r followRequest) input(followerID uint) service.FollowInput {
	return service.FollowInput{
		FollowerID:   followerID,
		FollowedID:   r.FollowedID,
		FollowedType: models.FollowedType(r.FollowedType),
	}
}

// Follow handles POST /api/follow for users and communities.
func (s *Server) Follow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.follow(c, req.input(currentUserID(c)))
}

// Unfollow handles POST /api/unfollow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.unfollow(c, req.input(currentUserID(c)))
}

func (s *Server) follow(c *fiber.Ctx, in service.FollowInput) error {
	message, err := s.followService.Follow(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

func (s *Server) unfollow(c *fiber.Ctx, in service.FollowInput) error {
	message, err := s.followService.Unfollow(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

// IsFollowing handles GET /api/users/:id/is_following
func (s *Server) IsFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	following, err := s.followService.IsFollowing(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"is_following": following})
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.followService.Followers(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowingUsers handles GET /api/users/:id/following
func (s *Server) GetFollowingUsers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.followService.FollowingUsers(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowingCommunities handles GET /api/users/:id/following_communities
func (s *Server) GetFollowingCommunities(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	communities, err := s.followService.FollowingCommunities(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(communities)
}
