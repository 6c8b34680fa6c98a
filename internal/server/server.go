package server

import (
	"context"
	"log"
	"sync"

	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/notify"
	"github.com/npezzotti/go-chatrelay/internal/stats"
)

const hubChanSize = 256

type eventKind int

const (
	eventRegister eventKind = iota
	eventDeRegister
	eventIdentify
	eventJoin
	eventLeave
	eventSignal
	eventDeliver
)

// hubEvent is anything a client asks of the hub. All of them share one
// channel so the hub sees a connection's events in the order it sent them.
type hubEvent struct {
	kind     eventKind
	client   *Client
	msg      *ClientMessage
	delivery *delivery
}

// delivery asks the hub to look up users and hand them msg. origin, when
// set, gets ack if none of the lookups resolved to it. metric, when set, is
// counted once the hub has handled the delivery.
type delivery struct {
	msg    *ServerMessage
	to     []string
	origin *Client
	ack    *ServerMessage
	metric string
}

// ChatServer is the hub. Its Run goroutine is the only writer of the
// registry and the room index; everything else reaches them over events.
type ChatServer struct {
	log      *log.Logger
	db       database.ChatRepository
	stats    stats.StatsProvider
	notifier notify.Notifier
	registry *Registry
	rooms    *RoomManager
	clients  map[*Client]struct{}
	events   chan hubEvent
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewChatServer(logger *log.Logger, db database.ChatRepository, su stats.StatsProvider, notifier notify.Notifier) (*ChatServer, error) {
	for _, name := range []string{
		stats.NumActiveClients,
		stats.NumIdentifiedUsers,
		stats.NumActiveRooms,
		stats.NumChatMessages,
		stats.NumSignalingMessages,
	} {
		su.RegisterMetric(name)
	}

	if notifier == nil {
		notifier = notify.Discard{}
	}

	return &ChatServer{
		log:      logger,
		db:       db,
		stats:    su,
		notifier: notifier,
		registry: NewRegistry(),
		rooms:    NewRoomManager(logger),
		clients:  make(map[*Client]struct{}),
		events:   make(chan hubEvent, hubChanSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (cs *ChatServer) Run() {
	defer close(cs.done)

	for {
		select {
		case ev := <-cs.events:
			cs.handleEvent(ev)
		case <-cs.stop:
			cs.log.Printf("closing %d client connections", len(cs.clients))
			for c := range cs.clients {
				c.stopClient()
			}
			return
		}
	}
}

func (cs *ChatServer) handleEvent(ev hubEvent) {
	switch ev.kind {
	case eventRegister:
		cs.handleRegister(ev.client)
	case eventDeRegister:
		cs.handleDeRegister(ev.client)
	case eventIdentify:
		cs.handleIdentify(ev.msg)
	case eventJoin:
		cs.handleJoin(ev.msg)
	case eventLeave:
		cs.handleLeave(ev.client)
	case eventSignal:
		cs.handleSignal(ev.msg)
	case eventDeliver:
		cs.handleDelivery(ev.delivery)
	}
}

// post queues ev for the hub. It reports false once the hub has stopped.
func (cs *ChatServer) post(ev hubEvent) bool {
	select {
	case cs.events <- ev:
		return true
	case <-cs.done:
		return false
	}
}

// Shutdown stops the hub and disconnects every client. It returns ctx's error
// if the hub does not exit in time.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.stopOnce.Do(func() { close(cs.stop) })

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	if !cs.post(hubEvent{kind: eventRegister, client: c}) {
		c.stopClient()
	}
}

func (cs *ChatServer) deRegister(c *Client) {
	cs.post(hubEvent{kind: eventDeRegister, client: c})
}

func (cs *ChatServer) identify(msg *ClientMessage) {
	cs.post(hubEvent{kind: eventIdentify, client: msg.client, msg: msg})
}

func (cs *ChatServer) deliver(d *delivery) {
	cs.post(hubEvent{kind: eventDeliver, client: d.origin, delivery: d})
}

func (cs *ChatServer) handleRegister(c *Client) {
	cs.clients[c] = struct{}{}
	cs.stats.Incr(stats.NumActiveClients)
	cs.log.Printf("client %s connected, waiting for identification", c.id)
}

// handleDeRegister runs when a transport closes. Leaving the room and
// releasing the registry binding are both no-ops for clients that never
// joined or identified.
func (cs *ChatServer) handleDeRegister(c *Client) {
	if !cs.isRegistered(c) {
		return
	}

	cs.withGauges(func() {
		cs.rooms.leave(c)
		cs.registry.remove(c)
	})

	delete(cs.clients, c)
	cs.stats.Decr(stats.NumActiveClients)

	if c.identified {
		cs.log.Printf("client %s (%q) disconnected", c.id, c.userId)
	} else {
		cs.log.Printf("unidentified client %s disconnected", c.id)
	}
}

func (cs *ChatServer) handleIdentify(msg *ClientMessage) {
	c := msg.client
	if !cs.isRegistered(c) {
		return
	}

	cs.withGauges(func() {
		cs.registry.identify(c, msg.UserId)
	})
	cs.log.Printf("client %s identified as %q", c.id, msg.UserId)
}

// handleDelivery resolves recipients at the moment the hub processes the
// request, not when the sender's frame arrived.
func (cs *ChatServer) handleDelivery(d *delivery) {
	if d.metric != "" {
		cs.stats.Incr(d.metric)
	}

	reached := make(map[*Client]struct{}, len(d.to))
	for _, userId := range d.to {
		c := cs.registry.lookup(userId)
		if c == nil || !c.isOpen() {
			continue
		}
		if _, ok := reached[c]; ok {
			continue
		}

		if c.queueMessage(d.msg) {
			reached[c] = struct{}{}
		}
	}

	if d.ack == nil || d.origin == nil {
		return
	}

	if _, ok := reached[d.origin]; !ok {
		d.origin.queueMessage(d.ack)
	}
}

// isRegistered reports whether c is still connected as far as the hub knows.
// Events that arrive after a client's close must not put it back in an index.
func (cs *ChatServer) isRegistered(c *Client) bool {
	_, ok := cs.clients[c]
	return ok
}

// withGauges runs fn and moves the identified-user and room gauges by however
// much fn changed the indexes.
func (cs *ChatServer) withGauges(fn func()) {
	users, rooms := cs.registry.len(), cs.rooms.len()
	fn()
	cs.adjust(stats.NumIdentifiedUsers, cs.registry.len()-users)
	cs.adjust(stats.NumActiveRooms, cs.rooms.len()-rooms)
}

func (cs *ChatServer) adjust(name string, delta int) {
	for ; delta > 0; delta-- {
		cs.stats.Incr(name)
	}
	for ; delta < 0; delta++ {
		cs.stats.Decr(name)
	}
}
