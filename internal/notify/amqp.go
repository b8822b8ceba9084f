package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"eventplanner/internal/domain"
)

// ErrDeliveriesClosed is returned by Consumer.Run when the broker closes the
// delivery channel before the caller's context ends.
var ErrDeliveriesClosed = errors.New("notify: delivery channel closed")

// RoutingKeyInvitation routes invitation messages on the events exchange.
const RoutingKeyInvitation = "event.invitation"

// Topology names the RabbitMQ objects used for invitations.
type Topology struct {
	Exchange           string
	Queue              string
	DeadLetterExchange string
	DeadLetterQueue    string
	Prefetch           int
}

// DefaultTopology returns the standard exchange and queue names.
func DefaultTopology() Topology {
	return Topology{
		Exchange:           "eventplanner.events",
		Queue:              "eventplanner.invitations",
		DeadLetterExchange: "eventplanner.dlx",
		DeadLetterQueue:    "eventplanner.invitations.dlq",
		Prefetch:           8,
	}
}

type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Declare creates the durable exchange, the invitation queue bound to it and, when a
// dead-letter exchange is named, the dead-letter exchange and queue.
func (t Topology) Declare(ch topologyChannel) error {
	if err := ch.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	args := amqp.Table{}
	if t.DeadLetterExchange != "" {
		if err := ch.ExchangeDeclare(t.DeadLetterExchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dlx %s: %w", t.DeadLetterExchange, err)
		}
		if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dlq %s: %w", t.DeadLetterQueue, err)
		}
		if err := ch.QueueBind(t.DeadLetterQueue, "#", t.DeadLetterExchange, false, nil); err != nil {
			return fmt.Errorf("bind dlq: %w", err)
		}
		args["x-dead-letter-exchange"] = t.DeadLetterExchange
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, RoutingKeyInvitation, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.Queue, err)
	}
	return nil
}

// Dial opens a connection and channel and declares the topology.
func Dial(url string, t Topology) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := t.Declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPDispatcher publishes notifications as persistent JSON messages. A nil error means
// the broker accepted the message; delivery happens in the notify worker.
type AMQPDispatcher struct {
	ch       publishChannel
	exchange string
	logger   *slog.Logger
}

func NewAMQPDispatcher(ch publishChannel, exchange string, logger *slog.Logger) *AMQPDispatcher {
	return &AMQPDispatcher{ch: ch, exchange: exchange, logger: logger}
}

func (d *AMQPDispatcher) Enqueue(ctx context.Context, n domain.InvitationNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode invitation: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         RoutingKeyInvitation,
		Body:         body,
	}
	if err := d.ch.PublishWithContext(ctx, d.exchange, RoutingKeyInvitation, false, false, msg); err != nil {
		return fmt.Errorf("publish invitation: %w", err)
	}
	d.logger.Debug("invitation published", "event_id", n.EventID, "email", n.Email, "message_id", msg.MessageId)
	return nil
}

// Consumer delivers invitations read from the queue. Messages are acked after a
// successful send. A failed send is requeued once and dead-lettered when it fails again
// on redelivery; malformed messages are dead-lettered immediately.
type Consumer struct {
	sender      domain.InvitationSender
	logger      *slog.Logger
	sendTimeout time.Duration
}

func NewConsumer(sender domain.InvitationSender, logger *slog.Logger) *Consumer {
	return &Consumer{sender: sender, logger: logger, sendTimeout: 30 * time.Second}
}

// Run handles deliveries until ctx ends. A channel closed while ctx is still
// live means the connection dropped and yields ErrDeliveriesClosed.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var n domain.InvitationNotification
	if err := json.Unmarshal(d.Body, &n); err != nil || n.Email == "" || n.EventID == "" {
		c.logger.Error("malformed invitation message, dead-lettering", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	err := c.sender.SendEventInvitation(sendCtx, &n)
	cancel()
	if err != nil {
		requeue := !d.Redelivered
		c.logger.Warn("invitation send failed", "event_id", n.EventID, "email", n.Email, "requeue", requeue, "error", err)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

// Consume starts a manual-ack consumer on queue with the given prefetch.
func Consume(ctx context.Context, ch *amqp.Channel, queue, consumerTag string, prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch <= 0 {
		prefetch = 8
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, nil
}
