package server

import "github.com/npezzotti/go-chatrelay/internal/stats"

// Signaling frames never touch storage. join, leave and signal queue them for
// the hub, which owns the room index.

func (cs *ChatServer) join(msg *ClientMessage) {
	cs.post(hubEvent{kind: eventJoin, client: msg.client, msg: msg})
}

func (cs *ChatServer) leave(c *Client) {
	cs.post(hubEvent{kind: eventLeave, client: c})
}

func (cs *ChatServer) signal(msg *ClientMessage) {
	cs.post(hubEvent{kind: eventSignal, client: msg.client, msg: msg})
}

func (cs *ChatServer) handleJoin(msg *ClientMessage) {
	if !cs.isRegistered(msg.client) {
		return
	}

	cs.withGauges(func() {
		cs.rooms.join(msg.client, msg.RoomId)
	})
}

func (cs *ChatServer) handleLeave(c *Client) {
	if !cs.isRegistered(c) {
		return
	}

	cs.withGauges(func() {
		cs.rooms.leave(c)
	})
}

func (cs *ChatServer) handleSignal(msg *ClientMessage) {
	if !cs.isRegistered(msg.client) {
		return
	}

	n := cs.rooms.relay(msg.client, msg.RoomId, msg.Type, msg.Payload)
	if n > 0 {
		cs.stats.Incr(stats.NumSignalingMessages)
	}
}
