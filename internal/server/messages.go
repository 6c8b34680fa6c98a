package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MessageType string

const (
	Identification MessageType = "identification"
	Chat           MessageType = "chat"
	Seen           MessageType = "seen"
	JoinRoom       MessageType = "join-room"
	LeaveRoom      MessageType = "leave-room"
	Offer          MessageType = "offer"
	Answer         MessageType = "answer"
	IceCandidate   MessageType = "ice-candidate"
	AudioMessage   MessageType = "audio-message"

	PeerJoined MessageType = "peer-joined"
	PeerLeft   MessageType = "peer-left"
	Ack        MessageType = "ack"
	Nack       MessageType = "nack"
	Error      MessageType = "error"
)

var ErrMalformedFrame = errors.New("malformed frame")

type ClientMessage struct {
	Type     MessageType     `json:"type"`
	UserId   string          `json:"userId,omitempty"`
	RoomId   string          `json:"roomId,omitempty"`
	ClientId string          `json:"clientId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	client   *Client
}

type ServerMessage struct {
	Type     MessageType     `json:"type"`
	RoomId   string          `json:"roomId,omitempty"`
	ClientId string          `json:"clientId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Data     any             `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type ackData struct {
	Id        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// chatData is the inbound shape of a chat frame's data field. Timestamps
// arrive either as RFC 3339 strings or as epoch milliseconds.
type chatData struct {
	ClientId     string          `json:"clientId"`
	Sender       string          `json:"sender"`
	Receiver     string          `json:"receiver"`
	SenderName   string          `json:"senderName"`
	ReceiverName string          `json:"receiverName"`
	Text         string          `json:"text"`
	MessageType  string          `json:"messageType"`
	FileUrl      string          `json:"fileUrl"`
	Duration     float64         `json:"duration"`
	Timestamp    json.RawMessage `json:"timestamp"`
}

func parseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	switch msg.Type {
	case Identification, LeaveRoom:
	case JoinRoom, Offer, Answer, IceCandidate:
		if msg.RoomId == "" {
			return nil, fmt.Errorf("%w: %s frame missing roomId", ErrMalformedFrame, msg.Type)
		}
	case Chat, Seen, AudioMessage:
		if len(msg.Data) == 0 || bytes.Equal(msg.Data, []byte("null")) {
			return nil, fmt.Errorf("%w: %s frame missing data", ErrMalformedFrame, msg.Type)
		}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, msg.Type)
	}

	return &msg, nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, s)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(int64(ms)), nil
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func NewPeerJoined(roomId string) *ServerMessage {
	return &ServerMessage{Type: PeerJoined, RoomId: roomId}
}

func NewPeerLeft(roomId string) *ServerMessage {
	return &ServerMessage{Type: PeerLeft, RoomId: roomId}
}

func NewAck(clientId, id string, ts time.Time) *ServerMessage {
	return &ServerMessage{
		Type:     Ack,
		ClientId: clientId,
		Data:     ackData{Id: id, Timestamp: ts},
	}
}

func NewNack(clientId, reason string) *ServerMessage {
	return &ServerMessage{
		Type:     Nack,
		ClientId: clientId,
		Error:    reason,
	}
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{
		Type:  Error,
		Error: "invalid message format",
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
