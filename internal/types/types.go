package types

import (
	"time"
)

const (
	MessageTypeText  = "text"
	MessageTypeAudio = "audio"
)

type ChatMessage struct {
	Id           string    `json:"id,omitempty"`
	ClientId     string    `json:"clientId,omitempty"`
	Sender       string    `json:"sender"`
	Receiver     string    `json:"receiver"`
	SenderName   string    `json:"senderName,omitempty"`
	ReceiverName string    `json:"receiverName,omitempty"`
	Text         string    `json:"text,omitempty"`
	MessageType  string    `json:"messageType"`
	FileUrl      string    `json:"fileUrl,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Seen         bool      `json:"seen"`
}

// IsAudio reports whether the message carries a voice recording rather than text.
func (m ChatMessage) IsAudio() bool {
	return m.MessageType == MessageTypeAudio
}

type SeenEvent struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

type NotificationToken struct {
	UserId    string    `json:"userId"`
	Email     string    `json:"emailId,omitempty"`
	Token     string    `json:"notificationToken"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
