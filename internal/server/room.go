package server

import (
	"encoding/json"
	"log"
)

type Room struct {
	id      string
	members map[*Client]struct{}
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		members: make(map[*Client]struct{}),
	}
}

// RoomManager indexes signaling rooms by id. Rooms are created on first join
// and dropped as soon as the last member leaves. Like Registry it is only
// used from the hub goroutine.
type RoomManager struct {
	log   *log.Logger
	rooms map[string]*Room
}

func NewRoomManager(l *log.Logger) *RoomManager {
	return &RoomManager{
		log:   l,
		rooms: make(map[string]*Room),
	}
}

// join adds c to roomId, leaving whatever room c was in before. Members
// already present are told a peer joined; that is their cue to start the call.
func (rm *RoomManager) join(c *Client, roomId string) {
	if c.roomId == roomId {
		return
	}

	if c.roomId != "" {
		rm.leave(c)
	}

	room, ok := rm.rooms[roomId]
	if !ok {
		room = newRoom(roomId)
		rm.rooms[roomId] = room
		rm.log.Printf("created room %q", roomId)
	}

	for member := range room.members {
		member.queueMessage(NewPeerJoined(roomId))
	}

	room.members[c] = struct{}{}
	c.roomId = roomId
	rm.log.Printf("client %s joined room %q (%d members)", c.id, roomId, len(room.members))
}

// relay forwards a signaling payload to every other open member of roomId and
// returns how many members it reached.
func (rm *RoomManager) relay(from *Client, roomId string, kind MessageType, payload json.RawMessage) int {
	room, ok := rm.rooms[roomId]
	if !ok {
		return 0
	}

	msg := &ServerMessage{
		Type:    kind,
		RoomId:  roomId,
		Payload: payload,
	}

	n := 0
	for member := range room.members {
		if member == from || !member.isOpen() {
			continue
		}

		if member.queueMessage(msg) {
			n++
		}
	}

	return n
}

func (rm *RoomManager) leave(c *Client) {
	if c.roomId == "" {
		return
	}

	roomId := c.roomId
	c.roomId = ""

	room, ok := rm.rooms[roomId]
	if !ok {
		return
	}

	if _, ok := room.members[c]; !ok {
		return
	}

	delete(room.members, c)
	rm.log.Printf("client %s left room %q", c.id, roomId)

	if len(room.members) == 0 {
		delete(rm.rooms, roomId)
		rm.log.Printf("removed empty room %q", roomId)
		return
	}

	for member := range room.members {
		member.queueMessage(NewPeerLeft(roomId))
	}
}

func (rm *RoomManager) get(roomId string) (*Room, bool) {
	room, ok := rm.rooms[roomId]
	return room, ok
}

func (rm *RoomManager) len() int {
	return len(rm.rooms)
}
