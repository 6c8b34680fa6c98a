package notify

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/npezzotti/go-chatrelay/internal/database"
)

const sendTimeout = 10 * time.Second

type Notification struct {
	UserId string
	Title  string
	Body   string
}

// Notifier accepts notifications without blocking the caller.
type Notifier interface {
	Notify(n Notification)
}

type TokenStore interface {
	GetNotificationToken(ctx context.Context, userId string) (database.NotificationToken, error)
}

// Dispatcher delivers notifications on a fixed pool of background workers.
// A full queue drops the notification.
type Dispatcher struct {
	log     *log.Logger
	tokens  TokenStore
	sender  Sender
	queue   chan Notification
	workers int
	wg      sync.WaitGroup
}

func NewDispatcher(logger *log.Logger, tokens TokenStore, sender Sender, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	return &Dispatcher{
		log:     logger,
		tokens:  tokens,
		sender:  sender,
		queue:   make(chan Notification, queueSize),
		workers: workers,
	}
}

func (d *Dispatcher) Notify(n Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Printf("notification queue full, dropping notification for %q", n.UserId)
	}
}

// Run starts the workers. They exit once ctx is done; use Wait to block until they have.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.work(ctx)
		}()
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			if err := d.deliver(ctx, n); err != nil {
				d.log.Printf("notify %q: %v", n.UserId, err)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	tok, err := d.tokens.GetNotificationToken(ctx, n.UserId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// user never registered a device
			return nil
		}
		return err
	}

	if tok.Token == "" {
		return nil
	}

	return d.sender.Send(ctx, tok.Token, n.Title, n.Body)
}

// Discard is a Notifier that drops everything, used when push is disabled.
type Discard struct{}

func (Discard) Notify(Notification) {}
