package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBacklogFull is returned by Publish when the in-memory backlog cannot
// take another event.
var ErrBacklogFull = errors.New("event backlog full")

// Publisher forwards booking events to RabbitMQ from a single background
// goroutine so request handlers never wait on the broker. Events are
// published to the default exchange with the queue name as routing key and
// are marked persistent.
type Publisher struct {
	url     string
	backlog chan BookingEvent
	dial    func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a Publisher with room for size pending events.
// Run must be started for events to leave the process.
func NewPublisher(url string, size int) *Publisher {
	if size <= 0 {
		size = 256
	}
	return &Publisher{url: url, backlog: make(chan BookingEvent, size), dial: amqp.Dial}
}

// Publish enqueues ev without blocking.
func (p *Publisher) Publish(_ context.Context, ev BookingEvent) error {
	select {
	case p.backlog <- ev:
		return nil
	default:
		log.Printf("rabbitmq: backlog full, dropping %s for booking %d", ev.Type, ev.BookingID)
		return ErrBacklogFull
	}
}

// Run drains the backlog until ctx is cancelled, reconnecting with
// exponential backoff whenever the broker goes away.
func (p *Publisher) Run(ctx context.Context) {
	backoff := time.Second
	var pending *BookingEvent
	for ctx.Err() == nil {
		conn, err := p.dial(p.url)
		if err != nil {
			log.Printf("rabbitmq: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		pending, err = p.pump(ctx, conn, pending)
		_ = conn.Close()
		if err != nil && ctx.Err() == nil {
			log.Printf("rabbitmq: publisher stopped: %v; reconnecting", err)
			sleep(ctx, 2*time.Second)
		}
	}
}

// pump publishes events on one connection. The event that failed to send,
// if any, is returned so it can be retried on the next connection.
func (p *Publisher) pump(ctx context.Context, conn *amqp.Connection, pending *BookingEvent) (*BookingEvent, error) {
	ch, err := conn.Channel()
	if err != nil {
		return pending, fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
		return pending, fmt.Errorf("queue declare: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		if pending != nil {
			if err := publishOne(ctx, ch, *pending); err != nil {
				return pending, err
			}
			pending = nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case amqpErr := <-closed:
			return nil, fmt.Errorf("connection closed: %v", amqpErr)
		case ev := <-p.backlog:
			pending = &ev
		}
	}
}

func publishOne(ctx context.Context, ch *amqp.Channel, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		// unmarshalable events are dropped; retrying cannot help
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(pctx,
		"",           // default exchange
		BookingQueue, // routing key = queue name
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Type:         ev.Type,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
