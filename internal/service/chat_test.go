package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatServiceDeps struct {
	messages    *mocks.MockMessageRepository
	groups      *mocks.MockGroupRepository
	broadcaster *mocks.MockBroadcaster
}

func newTestChatService(t *testing.T) (*chatService, chatServiceDeps) {
	ctrl := gomock.NewController(t)
	deps := chatServiceDeps{
		messages:    mocks.NewMockMessageRepository(ctrl),
		groups:      mocks.NewMockGroupRepository(ctrl),
		broadcaster: mocks.NewMockBroadcaster(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	svc := NewChatService(deps.messages, deps.groups, deps.broadcaster, logger)
	return svc.(*chatService), deps
}

func TestSendMessage_Success(t *testing.T) {
	// Подготовка
	service, deps := newTestChatService(t)
	ctx := context.Background()
	msg := &models.ChatMessage{GroupID: "g1", SenderID: "u1", Text: "  на месте в 10:00 "}

	// Ожидания
	deps.groups.EXPECT().GetByID(ctx, "g1").Return(&models.Group{ID: "g1"}, nil).Times(1)
	deps.messages.EXPECT().Create(ctx, msg).Return(nil).Times(1)
	deps.broadcaster.EXPECT().PublishMessage(ctx, msg).Return(nil).Times(1)

	// Действие
	err := service.SendMessage(ctx, msg)

	// Проверки
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "на месте в 10:00", msg.Text)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestSendMessage_GroupNotFound(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()
	msg := &models.ChatMessage{GroupID: "missing", SenderID: "u1", Text: "hi"}

	deps.groups.EXPECT().GetByID(ctx, "missing").Return(nil, models.ErrNotFound).Times(1)
	deps.messages.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	err := service.SendMessage(ctx, msg)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSendMessage_BroadcastFailureIsNotFatal(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()
	msg := &models.ChatMessage{GroupID: "g1", SenderID: "u1", Text: "hi"}

	deps.groups.EXPECT().GetByID(ctx, "g1").Return(&models.Group{ID: "g1"}, nil).Times(1)
	deps.messages.EXPECT().Create(ctx, msg).Return(nil).Times(1)
	deps.broadcaster.EXPECT().PublishMessage(ctx, msg).Return(errors.New("redis down")).Times(1)

	require.NoError(t, service.SendMessage(ctx, msg))
}

func TestSendMessage_RepositoryError(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()
	msg := &models.ChatMessage{GroupID: "g1", SenderID: "u1", Text: "hi"}

	deps.groups.EXPECT().GetByID(ctx, "g1").Return(&models.Group{ID: "g1"}, nil).Times(1)
	deps.messages.EXPECT().Create(ctx, msg).Return(errors.New("insert failed")).Times(1)
	deps.broadcaster.EXPECT().PublishMessage(gomock.Any(), gomock.Any()).Times(0)

	err := service.SendMessage(ctx, msg)

	assert.ErrorContains(t, err, "could not send message")
}

func TestListMessages(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()
	expected := []*models.ChatMessage{{ID: "m1", GroupID: "g1"}, {ID: "m2", GroupID: "g1"}}

	deps.messages.EXPECT().ListByGroup(ctx, "g1").Return(expected, nil).Times(1)

	result, err := service.ListMessages(ctx, "g1")

	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestStreamMessages_GroupNotFound(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()

	deps.groups.EXPECT().GetByID(ctx, "missing").Return(nil, models.ErrNotFound).Times(1)
	deps.broadcaster.EXPECT().SubscribeMessages(gomock.Any(), gomock.Any()).Times(0)

	ch, err := service.StreamMessages(ctx, "missing")

	assert.Nil(t, ch)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStreamMessages_Subscribes(t *testing.T) {
	service, deps := newTestChatService(t)
	ctx := context.Background()
	src := make(chan *models.ChatMessage)

	deps.groups.EXPECT().GetByID(ctx, "g1").Return(&models.Group{ID: "g1"}, nil).Times(1)
	deps.broadcaster.EXPECT().SubscribeMessages(ctx, "g1").Return((<-chan *models.ChatMessage)(src), nil).Times(1)

	ch, err := service.StreamMessages(ctx, "g1")

	require.NoError(t, err)
	assert.NotNil(t, ch)
}
