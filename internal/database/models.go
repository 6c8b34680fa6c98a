package database

import (
	"strconv"
	"time"

	"github.com/npezzotti/go-chatrelay/internal/types"
)

type Message struct {
	Id           int64
	Sender       string
	Receiver     string
	SenderName   string
	ReceiverName string
	Text         string
	MessageType  string
	FileUrl      string
	Duration     float64
	Seen         bool
	CreatedAt    time.Time
}

// ChatMessage renders a stored message in its wire form. clientId is echoed
// back to the sender that supplied it.
func (m Message) ChatMessage(clientId string) types.ChatMessage {
	return types.ChatMessage{
		Id:           strconv.FormatInt(m.Id, 10),
		ClientId:     clientId,
		Sender:       m.Sender,
		Receiver:     m.Receiver,
		SenderName:   m.SenderName,
		ReceiverName: m.ReceiverName,
		Text:         m.Text,
		MessageType:  m.MessageType,
		FileUrl:      m.FileUrl,
		Duration:     m.Duration,
		Timestamp:    m.CreatedAt.UTC().Round(time.Millisecond),
		Seen:         m.Seen,
	}
}

type NotificationToken struct {
	UserId    string
	Email     string
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateMessageParams struct {
	Sender       string
	Receiver     string
	SenderName   string
	ReceiverName string
	Text         string
	MessageType  string
	FileUrl      string
	Duration     float64
	CreatedAt    time.Time
}

func (t NotificationToken) Public() types.NotificationToken {
	return types.NotificationToken{
		UserId:    t.UserId,
		Email:     t.Email,
		Token:     t.Token,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type UpsertTokenParams struct {
	UserId string
	Email  string
	Token  string
}
