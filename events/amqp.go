package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/logging"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher sends each event to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	logger   *logging.Logger
	now      func() time.Time

	mu sync.Mutex
}

var _ generic.Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string, logger *logging.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newAMQPPublisher(ch, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange string, logger *logging.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	p := &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.WithComponent("amqp"),
		now:      time.Now,
	}

	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return p, nil
}

// Publish sends events in order and stops at the first failure.
func (p *AMQPPublisher) Publish(ctx context.Context, evts []generic.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range evts {
		env, err := NewEnvelope(e, p.now())
		if err != nil {
			return err
		}
		body, err := env.ToJSON()
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = p.ch.PublishWithContext(
			pubCtx,
			p.exchange,       // exchange
			env.RoutingKey(), // routing key
			false,            // mandatory
			false,            // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				MessageId:    env.ID.String(),
				Type:         env.Type,
				Timestamp:    env.OccurredAt,
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("publish %s: %w", env.Type, err)
		}

		p.logger.DebugContext(ctx, "published event",
			"id", env.ID,
			"type", env.Type,
			"account", env.Account,
			"exchange", p.exchange)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
