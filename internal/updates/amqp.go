package updates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// AMQPSource binds a private queue to the exchange the analysis worker
// publishes session updates on.
type AMQPSource struct {
	conn     *amqp.Connection
	exchange string
}

func NewAMQPSource(conn *amqp.Connection, exchange string) *AMQPSource {
	if exchange == "" {
		exchange = "session_updates"
	}
	return &AMQPSource{conn: conn, exchange: exchange}
}

func RoutingKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session.%s", sessionID)
}

func (a *AMQPSource) Open(ctx context.Context, sessionID uuid.UUID) (Feed, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKey(sessionID), a.exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue to %s: %w", a.exchange, err)
	}
	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	f := newDeliveryFeed(deliveries, ch.NotifyClose(make(chan *amqp.Error, 1)), ch)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-f.done:
		}
	}()
	return f, nil
}

// deliveryFeed adapts a consumer channel. AMQP does not reconnect, so a
// broken channel is only reported; the subscriber's grace timer closes it.
type deliveryFeed struct {
	msgs   chan []byte
	errs   chan error
	closer io.Closer
	done   chan struct{}
	once   sync.Once
}

func newDeliveryFeed(deliveries <-chan amqp.Delivery, closes <-chan *amqp.Error, closer io.Closer) *deliveryFeed {
	f := &deliveryFeed{
		msgs:   make(chan []byte),
		errs:   make(chan error, 1),
		closer: closer,
		done:   make(chan struct{}),
	}
	go f.run(deliveries, closes)
	return f
}

func (f *deliveryFeed) run(deliveries <-chan amqp.Delivery, closes <-chan *amqp.Error) {
	for deliveries != nil || closes != nil {
		select {
		case <-f.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				deliveries = nil
				f.report(errors.New("amqp delivery channel closed"))
				continue
			}
			select {
			case f.msgs <- d.Body:
			case <-f.done:
				return
			}
		case e, ok := <-closes:
			if !ok {
				closes = nil
				continue
			}
			if e != nil {
				f.report(e)
			}
		}
	}
}

func (f *deliveryFeed) report(err error) {
	select {
	case f.errs <- err:
	default:
	}
}

func (f *deliveryFeed) Messages() <-chan []byte { return f.msgs }
func (f *deliveryFeed) Errors() <-chan error    { return f.errs }

func (f *deliveryFeed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		err = f.closer.Close()
	})
	return err
}
