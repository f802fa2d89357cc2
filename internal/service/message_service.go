package service

import (
	"context"

	"agrisocial/internal/featureflags"
	"agrisocial/internal/models"
	"agrisocial/internal/observability"
	"agrisocial/internal/repository"
)

const maxMessageLen = 5000

type MessageService struct {
	messageRepo   repository.MessageRepository
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
	flags         *featureflags.Manager
}

type SendMessageInput struct {
	SenderID    uint
	ReceiverID  *uint
	CommunityID *uint
	Text        string
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	communityRepo repository.CommunityRepository,
	flags *featureflags.Manager,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		flags:         flags,
	}
}

// requireMembership enforces the members-only flag for community messages.
func (s *MessageService) requireMembership(ctx context.Context, userID, communityID uint, denied string) error {
	if !s.flags.Enabled(featureflags.CommunityMessagesMembersOnly, userID) {
		return nil
	}
	member, err := s.communityRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !member {
		return models.NewForbiddenError(denied)
	}
	return nil
}

func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (_ *models.MessageResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "message", "send")
	defer span.Finish(&err)

	text := cleanText(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if tooLong(text, maxMessageLen) {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}

	switch {
	case in.ReceiverID != nil && in.CommunityID != nil:
		return nil, models.NewValidationError("Message cannot be for both a user and a community")
	case in.ReceiverID != nil:
		if *in.ReceiverID == in.SenderID {
			return nil, models.NewValidationError("You cannot message yourself")
		}
		if _, err := s.userRepo.GetByID(ctx, *in.ReceiverID); err != nil {
			return nil, err
		}
	case in.CommunityID != nil:
		if _, err := s.communityRepo.GetByID(ctx, *in.CommunityID); err != nil {
			return nil, err
		}
		if err := s.requireMembership(ctx, in.SenderID, *in.CommunityID, "You must be a member to post in this community"); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Either receiver_id or community_id is required")
	}

	message := &models.Message{
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		CommunityID: in.CommunityID,
		Text:        text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventMessageSent)

	created, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}
	resp := models.NewMessageResponse(created)
	return &resp, nil
}

// Conversation returns the direct messages between two users and marks the
// ones userID received as read.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint) ([]models.MessageResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return models.NewMessageResponses(messages), nil
}

func (s *MessageService) CommunityMessages(ctx context.Context, userID, communityID uint, limit, offset int) ([]models.MessageResponse, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, userID, communityID, "You must be a member to view messages in this community"); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListCommunity(ctx, communityID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewMessageResponses(messages), nil
}

func (s *MessageService) Sent(ctx context.Context, userID uint, limit, offset int) ([]models.MessageResponse, error) {
	messages, err := s.messageRepo.ListSent(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewMessageResponses(messages), nil
}

func (s *MessageService) Received(ctx context.Context, userID uint, limit, offset int) ([]models.MessageResponse, error) {
	messages, err := s.messageRepo.ListReceived(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.NewMessageResponses(messages), nil
}

func (s *MessageService) MarkRead(ctx context.Context, userID, messageID uint) (*models.MessageResponse, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.ReceiverID == nil || *message.ReceiverID != userID {
		return nil, models.NewForbiddenError("You are not authorized to mark this message as read")
	}
	if !message.IsRead {
		if err := s.messageRepo.MarkRead(ctx, messageID); err != nil {
			return nil, err
		}
		message.IsRead = true
	}
	resp := models.NewMessageResponse(message)
	return &resp, nil
}
