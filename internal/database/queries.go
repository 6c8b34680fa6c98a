package database

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 500
	messageColumns      = "id, sender, receiver, sender_name, receiver_name, text, message_type, file_url, duration, seen, created_at"

	// only unseen rows match, so repeating the call changes nothing and reports 0
	markSeenQuery = "UPDATE messages SET seen = TRUE WHERE sender = $1 AND receiver = $2 AND seen = FALSE"
)

type scanner interface {
	Scan(dest ...any) error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func scanMessage(row scanner) (Message, error) {
	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.Sender,
		&msg.Receiver,
		&msg.SenderName,
		&msg.ReceiverName,
		&msg.Text,
		&msg.MessageType,
		&msg.FileUrl,
		&msg.Duration,
		&msg.Seen,
		&msg.CreatedAt,
	)
	return msg, err
}

func (db *PgChatRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO messages (sender, receiver, sender_name, receiver_name, text, message_type, file_url, duration, seen, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9) RETURNING "+messageColumns,
		params.Sender,
		params.Receiver,
		params.SenderName,
		params.ReceiverName,
		params.Text,
		params.MessageType,
		params.FileUrl,
		params.Duration,
		createdAt.UTC(),
	)

	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, storageErr("create message", err)
	}

	return msg, nil
}

// MarkSeen flags every unseen message from sender to receiver as seen and
// returns the number of rows that changed.
func (db *PgChatRepository) MarkSeen(ctx context.Context, sender, receiver string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		markSeenQuery,
		sender,
		receiver,
	)
	if err != nil {
		return 0, storageErr("mark seen", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("mark seen", err)
	}

	return n, nil
}

func (db *PgChatRepository) GetHistory(ctx context.Context, user1, user2 string, limit int) ([]Message, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	// newest page first, flipped back to ascending order below
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages "+
			"WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1) "+
			"ORDER BY created_at DESC, id DESC LIMIT $3",
		user1,
		user2,
		limit,
	)
	if err != nil {
		return nil, storageErr("get history", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, storageErr("get history", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("get history", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (db *PgChatRepository) UpsertNotificationToken(ctx context.Context, params UpsertTokenParams) (NotificationToken, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO notification_tokens (user_id, email, token, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) "+
			"ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, token = EXCLUDED.token, updated_at = EXCLUDED.updated_at "+
			"RETURNING user_id, email, token, created_at, updated_at",
		params.UserId,
		params.Email,
		params.Token,
		now,
	)

	var tok NotificationToken
	err := row.Scan(
		&tok.UserId,
		&tok.Email,
		&tok.Token,
		&tok.CreatedAt,
		&tok.UpdatedAt,
	)
	if err != nil {
		return NotificationToken{}, storageErr("upsert notification token", err)
	}

	return tok, nil
}

func (db *PgChatRepository) GetNotificationToken(ctx context.Context, userId string) (NotificationToken, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT user_id, email, token, created_at, updated_at FROM notification_tokens "+
			"WHERE user_id = $1 LIMIT 1",
		userId,
	)

	var tok NotificationToken
	err := row.Scan(
		&tok.UserId,
		&tok.Email,
		&tok.Token,
		&tok.CreatedAt,
		&tok.UpdatedAt,
	)
	if err != nil {
		return NotificationToken{}, storageErr("get notification token", err)
	}

	return tok, nil
}
