package server

import (
	"testing"
	"time"

	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/notify"
	"github.com/npezzotti/go-chatrelay/internal/stats"
	"github.com/npezzotti/go-chatrelay/internal/testutil"
	"github.com/stretchr/testify/mock"
)

// newTestChatServer creates a ChatServer whose stats calls are all accepted.
func newTestChatServer(t *testing.T, db database.ChatRepository, notifier notify.Notifier) *ChatServer {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return()
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()

	cs, err := NewChatServer(testutil.TestLogger(t), db, su, notifier)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

// newTestClient returns a client without a transport; frames queued for it
// stay in its send channel.
func newTestClient(t *testing.T, cs *ChatServer, id string) *Client {
	return &Client{
		id:         id,
		chatServer: cs,
		log:        testutil.TestLogger(t),
		send:       make(chan *ServerMessage, 16),
		stop:       make(chan struct{}),
	}
}

// drain returns every frame currently queued for c.
func drain(c *Client) []*ServerMessage {
	var msgs []*ServerMessage
	for {
		select {
		case msg := <-c.send:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func ofType(msgs []*ServerMessage, typ MessageType) []*ServerMessage {
	var out []*ServerMessage
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func waitMessage(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for message on client %s", c.id)
		return nil
	}
}
