package server

import (
	"agrisocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages. Exactly one of receiver_id and
// community_id must be set.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text        string `json:"text"`
		ReceiverID  *uint  `json:"receiver_id"`
		CommunityID *uint  `json:"community_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.Send(c.UserContext(), service.SendMessageInput{
		SenderID:    currentUserID(c),
		ReceiverID:  req.ReceiverID,
		CommunityID: req.CommunityID,
		Text:        req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetConversation handles GET /api/messages/direct/:userId
func (s *Server) GetConversation(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	messages, err := s.messageService.Conversation(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// GetCommunityMessages handles GET /api/messages/community/:id
func (s *Server) GetCommunityMessages(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	messages, err := s.messageService.CommunityMessages(c.UserContext(), currentUserID(c), communityID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// GetSentMessages handles GET /api/messages/sent
func (s *Server) GetSentMessages(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	messages, err := s.messageService.Sent(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// GetReceivedMessages handles GET /api/messages/received
func (s *Server) GetReceivedMessages(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	messages, err := s.messageService.Received(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// MarkMessageRead handles PUT /api/messages/:id/read
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message marked as read", "data": msg})
}
