package service

import (
	"context"
	"strings"
	"testing"

	"agrisocial/internal/featureflags"
	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_Send_Validation(t *testing.T) {
	t.Parallel()

	svc := NewMessageService(noopMessageRepo(), noopUserRepo(), noopCommunityRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   SendMessageInput
		message string
	}{
		{name: "empty text", input: SendMessageInput{SenderID: 1, ReceiverID: uintPtr(2)}, message: "Message text is required"},
		{name: "both targets", input: SendMessageInput{SenderID: 1, ReceiverID: uintPtr(2), CommunityID: uintPtr(3), Text: "hi"}, message: "Message cannot be for both a user and a community"},
		{name: "no target", input: SendMessageInput{SenderID: 1, Text: "hi"}, message: "Either receiver_id or community_id is required"},
		{name: "self", input: SendMessageInput{SenderID: 1, ReceiverID: uintPtr(1), Text: "hi"}, message: "You cannot message yourself"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Send(ctx, tc.input)
			appErr := assertAppError(t, err, models.CodeValidation)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}

	_, err := svc.Send(ctx, SendMessageInput{SenderID: 1, ReceiverID: uintPtr(2), Text: strings.Repeat("m", maxMessageLen+1)})
	assertValidationError(t, err)
}

func TestMessageService_Send_Direct(t *testing.T) {
	t.Parallel()

	var stored *models.Message
	messages := noopMessageRepo()
	messages.createFn = func(_ context.Context, m *models.Message) error {
		m.ID = 12
		stored = m
		return nil
	}
	messages.getByIDFn = func(_ context.Context, _ uint) (*models.Message, error) {
		out := *stored
		out.Sender = &models.User{ID: out.SenderID, Username: "alice"}
		out.Receiver = &models.User{ID: *out.ReceiverID, Username: "bob"}
		return &out, nil
	}
	svc := NewMessageService(messages, noopUserRepo(), noopCommunityRepo(), nil)

	resp, err := svc.Send(context.Background(), SendMessageInput{SenderID: 1, ReceiverID: uintPtr(2), Text: "Need a hand with harvest?"})
	require.NoError(t, err)
	assert.Equal(t, uint(12), resp.ID)
	assert.Equal(t, "alice", resp.SenderUsername)
	require.NotNil(t, resp.ReceiverUsername)
	assert.Equal(t, "bob", *resp.ReceiverUsername)
	assert.Nil(t, resp.CommunityID)
	assert.False(t, resp.IsRead)
}

func TestMessageService_Send_UnknownReceiver(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) { return nil, notFound("User", id) }
	_, err := NewMessageService(noopMessageRepo(), users, noopCommunityRepo(), nil).Send(context.Background(),
		SendMessageInput{SenderID: 1, ReceiverID: uintPtr(9), Text: "hi"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestMessageService_CommunityMembership(t *testing.T) {
	t.Parallel()

	communities := noopCommunityRepo()
	communities.isMemberFn = func(_ context.Context, _, userID uint) (bool, error) { return userID == 1, nil }
	ctx := context.Background()

	membersOnly := NewMessageService(noopMessageRepo(), noopUserRepo(), communities,
		featureflags.NewManager(featureflags.CommunityMessagesMembersOnly+"=on"))

	_, err := membersOnly.Send(ctx, SendMessageInput{SenderID: 2, CommunityID: uintPtr(5), Text: "hello"})
	appErr := assertAppError(t, err, models.CodeForbidden)
	assert.Equal(t, "You must be a member to post in this community", appErr.Message)

	_, err = membersOnly.CommunityMessages(ctx, 2, 5, 50, 0)
	appErr = assertAppError(t, err, models.CodeForbidden)
	assert.Equal(t, "You must be a member to view messages in this community", appErr.Message)

	_, err = membersOnly.Send(ctx, SendMessageInput{SenderID: 1, CommunityID: uintPtr(5), Text: "hello"})
	assert.NoError(t, err)

	open := NewMessageService(noopMessageRepo(), noopUserRepo(), communities, featureflags.NewManager(""))
	_, err = open.Send(ctx, SendMessageInput{SenderID: 2, CommunityID: uintPtr(5), Text: "hello"})
	assert.NoError(t, err)
	_, err = open.CommunityMessages(ctx, 2, 5, 50, 0)
	assert.NoError(t, err)
}

func TestMessageService_MarkRead(t *testing.T) {
	t.Parallel()

	marked := 0
	messages := noopMessageRepo()
	messages.getByIDFn = func(_ context.Context, id uint) (*models.Message, error) {
		switch id {
		case 1:
			return &models.Message{ID: 1, SenderID: 2, ReceiverID: uintPtr(3)}, nil
		case 2:
			return &models.Message{ID: 2, SenderID: 2, CommunityID: uintPtr(5)}, nil
		}
		return nil, notFound("Message", id)
	}
	messages.markReadFn = func(_ context.Context, _ uint) error {
		marked++
		return nil
	}
	svc := NewMessageService(messages, noopUserRepo(), noopCommunityRepo(), nil)
	ctx := context.Background()

	_, err := svc.MarkRead(ctx, 2, 1)
	appErr := assertAppError(t, err, models.CodeForbidden)
	assert.Equal(t, "You are not authorized to mark this message as read", appErr.Message)

	_, err = svc.MarkRead(ctx, 3, 2)
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.MarkRead(ctx, 3, 99)
	assertAppError(t, err, models.CodeNotFound)

	resp, err := svc.MarkRead(ctx, 3, 1)
	require.NoError(t, err)
	assert.True(t, resp.IsRead)
	assert.Equal(t, 1, marked)
}

func TestMessageService_Conversation_UnknownUser(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) { return nil, notFound("User", id) }
	_, err := NewMessageService(noopMessageRepo(), users, noopCommunityRepo(), nil).Conversation(context.Background(), 1, 8)
	assertAppError(t, err, models.CodeNotFound)
}
