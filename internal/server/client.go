package server

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is a single websocket connection. userId, identified and roomId
// belong to the hub goroutine and must not be touched from the pumps.
type Client struct {
	id         string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	userId     string
	identified bool
	roomId     string
	send       chan *ServerMessage
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	id, err := shortid.Generate()
	if err != nil {
		id = fmt.Sprintf("%p", conn)
	}

	return &Client{
		id:         id,
		conn:       conn,
		chatServer: cs,
		log:        l,
		send:       make(chan *ServerMessage, sendBufferSize),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("client %s: write exiting", c.id)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Printf("client %s: failed to serialize message: %v", c.id, err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("client %s: read exiting", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("client %s: ws read: %v", c.id, err)
			}
			break
		}

		msg, err := parseClientMessage(raw)
		if err != nil {
			c.log.Printf("client %s: dropping frame: %v", c.id, err)
			c.queueMessage(ErrInvalidMessage())
			continue
		}

		msg.client = c
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *ClientMessage) {
	cs := c.chatServer
	switch msg.Type {
	case Identification:
		cs.identify(msg)
	case JoinRoom:
		cs.join(msg)
	case LeaveRoom:
		cs.leave(c)
	case Offer, Answer, IceCandidate:
		cs.signal(msg)
	case Chat:
		cs.handleChat(c, msg)
	case Seen:
		cs.handleSeen(c, msg)
	case AudioMessage:
		cs.handleAudio(c, msg)
	}
}

// isOpen reports whether the client can still accept outbound frames.
func (c *Client) isOpen() bool {
	select {
	case <-c.stop:
		return false
	default:
		return true
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	if !c.isOpen() {
		return false
	}

	select {
	case c.send <- msg:
	default:
		c.log.Printf("client %s: failed to send message to client, channel is full", c.id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("client %s: write message: %s", c.id, err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	c.stopClient()
	c.chatServer.deRegister(c)
}
