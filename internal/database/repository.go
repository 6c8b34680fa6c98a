package database

import (
	"context"
	"errors"
)

// ErrStorage marks every failure that originates in the persistence layer.
var ErrStorage = errors.New("storage error")

type ChatRepository interface {
	Ping() error
	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	MarkSeen(ctx context.Context, sender, receiver string) (int64, error)
	GetHistory(ctx context.Context, user1, user2 string, limit int) ([]Message, error)
	UpsertNotificationToken(ctx context.Context, params UpsertTokenParams) (NotificationToken, error)
	GetNotificationToken(ctx context.Context, userId string) (NotificationToken, error)
}
