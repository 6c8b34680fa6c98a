package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) MarkSeen(ctx context.Context, sender, receiver string) (int64, error) {
	args := m.Called(ctx, sender, receiver)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockChatRepository) GetHistory(ctx context.Context, user1, user2 string, limit int) ([]Message, error) {
	args := m.Called(ctx, user1, user2, limit)
	if msgs, ok := args.Get(0).([]Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) UpsertNotificationToken(ctx context.Context, params UpsertTokenParams) (NotificationToken, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(NotificationToken), args.Error(1)
}
func (m *MockChatRepository) GetNotificationToken(ctx context.Context, userId string) (NotificationToken, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(NotificationToken), args.Error(1)
}
