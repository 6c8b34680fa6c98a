package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/npezzotti/go-chatrelay/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_parseClientMessage(t *testing.T) {
	tcases := []struct {
		name    string
		raw     string
		typ     MessageType
		wantErr bool
	}{
		{name: "identification", raw: `{"type":"identification","userId":"alice"}`, typ: Identification},
		{name: "identification with empty user", raw: `{"type":"identification"}`, typ: Identification},
		{name: "chat", raw: `{"type":"chat","data":{"sender":"a","receiver":"b"}}`, typ: Chat},
		{name: "seen", raw: `{"type":"seen","data":{"sender":"a","receiver":"b"}}`, typ: Seen},
		{name: "join room", raw: `{"type":"join-room","roomId":"R"}`, typ: JoinRoom},
		{name: "leave room", raw: `{"type":"leave-room"}`, typ: LeaveRoom},
		{name: "offer", raw: `{"type":"offer","roomId":"R","payload":{"sdp":"x"}}`, typ: Offer},
		{name: "answer", raw: `{"type":"answer","roomId":"R","payload":{"sdp":"x"}}`, typ: Answer},
		{name: "ice candidate", raw: `{"type":"ice-candidate","roomId":"R","payload":{"candidate":"x"}}`, typ: IceCandidate},
		{name: "audio message", raw: `{"type":"audio-message","data":{"receiver":"b","url":"u"}}`, typ: AudioMessage},
		{name: "invalid json", raw: `{"type":`, wantErr: true},
		{name: "not an object", raw: `"chat"`, wantErr: true},
		{name: "missing type", raw: `{"userId":"alice"}`, wantErr: true},
		{name: "unknown type", raw: `{"type":"typing"}`, wantErr: true},
		{name: "join without room", raw: `{"type":"join-room"}`, wantErr: true},
		{name: "offer without room", raw: `{"type":"offer","payload":{}}`, wantErr: true},
		{name: "chat without data", raw: `{"type":"chat"}`, wantErr: true},
		{name: "seen with null data", raw: `{"type":"seen","data":null}`, wantErr: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := parseClientMessage([]byte(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedFrame, "expected malformed frame error")
				assert.Nil(t, msg)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.typ, msg.Type)
		})
	}
}

func Test_parseTimestamp(t *testing.T) {
	ref := time.Date(2024, 5, 1, 12, 30, 0, 123000000, time.UTC)

	tcases := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "absent", raw: ``, want: time.Time{}},
		{name: "null", raw: `null`, want: time.Time{}},
		{name: "empty string", raw: `""`, want: time.Time{}},
		{name: "rfc3339", raw: `"2024-05-01T12:30:00.123Z"`, want: ref},
		{name: "epoch millis", raw: `1714566600123`, want: ref},
		{name: "garbage string", raw: `"yesterday"`, wantErr: true},
		{name: "wrong type", raw: `true`, wantErr: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTimestamp(json.RawMessage(tc.raw))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "expected %s, got %s", tc.want, got)
		})
	}
}

func Test_serializeMessage(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tcases := []struct {
		name     string
		msg      *ServerMessage
		expected string
	}{
		{
			name:     "peer joined",
			msg:      NewPeerJoined("R"),
			expected: `{"type":"peer-joined","roomId":"R"}`,
		},
		{
			name: "relayed offer keeps payload untouched",
			msg: &ServerMessage{
				Type:    Offer,
				RoomId:  "R",
				Payload: json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
			},
			expected: `{"type":"offer","roomId":"R","payload":{"type":"offer","sdp":"v=0"}}`,
		},
		{
			name: "seen",
			msg: &ServerMessage{
				Type: Seen,
				Data: types.SeenEvent{Sender: "bob", Receiver: "alice"},
			},
			expected: `{"type":"seen","data":{"sender":"bob","receiver":"alice"}}`,
		},
		{
			name:     "ack",
			msg:      NewAck("tmp-1", "42", ts),
			expected: `{"type":"ack","clientId":"tmp-1","data":{"id":"42","timestamp":"2024-05-01T12:30:00Z"}}`,
		},
		{
			name:     "nack",
			msg:      NewNack("tmp-1", "message not saved"),
			expected: `{"type":"nack","clientId":"tmp-1","error":"message not saved"}`,
		},
		{
			name:     "invalid message",
			msg:      ErrInvalidMessage(),
			expected: `{"type":"error","error":"invalid message format"}`,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			bytes, err := serializeMessage(tc.msg)
			assert.NoError(t, err, "expected no error during serialization")
			assert.JSONEq(t, tc.expected, string(bytes))
		})
	}
}

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location(), "expected UTC timestamp")
	assert.Equal(t, 0, now.Nanosecond()%int(time.Millisecond), "expected millisecond precision")
}
