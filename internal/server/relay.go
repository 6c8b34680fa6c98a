package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/notify"
	"github.com/npezzotti/go-chatrelay/internal/stats"
	"github.com/npezzotti/go-chatrelay/internal/types"
)

const (
	storageTimeout   = 10 * time.Second
	voiceMessageBody = "Voice message"
)

var errInvalidChat = errors.New("invalid chat message")

func (d chatData) validate() error {
	if d.Sender == "" || d.Receiver == "" {
		return fmt.Errorf("%w: sender and receiver are required", errInvalidChat)
	}

	switch d.MessageType {
	case "", types.MessageTypeText:
	case types.MessageTypeAudio:
		if d.FileUrl == "" {
			return fmt.Errorf("%w: audio message without fileUrl", errInvalidChat)
		}
	default:
		return fmt.Errorf("%w: unknown messageType %q", errInvalidChat, d.MessageType)
	}

	return nil
}

// handleChat persists a chat message and then delivers it to the receiver
// and back to the sender. It runs on the sender's read goroutine, so frames
// from one connection are handled in order. Nothing is delivered when the
// save fails.
func (cs *ChatServer) handleChat(c *Client, msg *ClientMessage) {
	var data chatData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		cs.log.Printf("client %s: chat: %v", c.id, err)
		c.queueMessage(NewNack(msg.ClientId, "invalid message format"))
		return
	}

	clientId := data.ClientId
	if clientId == "" {
		clientId = msg.ClientId
	}

	if err := data.validate(); err != nil {
		cs.log.Printf("client %s: chat: %v", c.id, err)
		c.queueMessage(NewNack(clientId, err.Error()))
		return
	}

	ts, err := parseTimestamp(data.Timestamp)
	if err != nil {
		cs.log.Printf("client %s: chat: invalid timestamp: %v", c.id, err)
		c.queueMessage(NewNack(clientId, "invalid timestamp"))
		return
	}
	if ts.IsZero() {
		ts = Now()
	}

	messageType := data.MessageType
	if messageType == "" {
		messageType = types.MessageTypeText
	}

	// not tied to the connection: a save already under way finishes even if
	// the sender disconnects
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	saved, err := cs.db.CreateMessage(ctx, database.CreateMessageParams{
		Sender:       data.Sender,
		Receiver:     data.Receiver,
		SenderName:   data.SenderName,
		ReceiverName: data.ReceiverName,
		Text:         data.Text,
		MessageType:  messageType,
		FileUrl:      data.FileUrl,
		Duration:     data.Duration,
		CreatedAt:    ts.UTC().Round(time.Millisecond),
	})
	if err != nil {
		cs.log.Printf("client %s: save message from %q to %q: %v", c.id, data.Sender, data.Receiver, err)
		c.queueMessage(NewNack(clientId, "message not saved"))
		return
	}

	out := saved.ChatMessage(clientId)
	cs.deliver(&delivery{
		msg:    &ServerMessage{Type: Chat, Data: out},
		to:     []string{out.Receiver, out.Sender},
		origin: c,
		ack:    NewAck(clientId, out.Id, out.Timestamp),
		metric: stats.NumChatMessages,
	})

	cs.notifier.Notify(chatNotification(out))
}

func chatNotification(msg types.ChatMessage) notify.Notification {
	title := msg.SenderName
	if title == "" {
		title = msg.Sender
	}

	body := msg.Text
	if msg.IsAudio() || body == "" {
		body = voiceMessageBody
	}

	return notify.Notification{
		UserId: msg.Receiver,
		Title:  title,
		Body:   body,
	}
}

// handleSeen marks everything sender sent to receiver as seen and tells the
// original sender, with the roles swapped so the event reads from their side.
// Only the original sender is notified.
func (cs *ChatServer) handleSeen(c *Client, msg *ClientMessage) {
	var ev types.SeenEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.Sender == "" || ev.Receiver == "" {
		cs.log.Printf("client %s: invalid seen event: %s", c.id, msg.Data)
		c.queueMessage(NewNack(msg.ClientId, "invalid message format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	n, err := cs.db.MarkSeen(ctx, ev.Sender, ev.Receiver)
	if err != nil {
		cs.log.Printf("client %s: mark seen %q -> %q: %v", c.id, ev.Sender, ev.Receiver, err)
		c.queueMessage(NewNack(msg.ClientId, "seen update failed"))
		return
	}

	cs.log.Printf("marked %d messages from %q to %q as seen", n, ev.Sender, ev.Receiver)

	cs.deliver(&delivery{
		msg: &ServerMessage{
			Type: Seen,
			Data: types.SeenEvent{Sender: ev.Receiver, Receiver: ev.Sender},
		},
		to: []string{ev.Sender},
	})
}

// handleAudio relays a legacy audio-message frame to its receiver as-is,
// without persisting it.
func (cs *ChatServer) handleAudio(c *Client, msg *ClientMessage) {
	var target struct {
		Receiver string `json:"receiver"`
	}
	if err := json.Unmarshal(msg.Data, &target); err != nil || target.Receiver == "" {
		cs.log.Printf("client %s: invalid audio message: %s", c.id, msg.Data)
		c.queueMessage(ErrInvalidMessage())
		return
	}

	cs.deliver(&delivery{
		msg: &ServerMessage{Type: AudioMessage, Data: msg.Data},
		to:  []string{target.Receiver},
	})
}
