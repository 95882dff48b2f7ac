// Package amqp carries orders from producers to the ingestion worker and
// fans period invalidations out to every server instance over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// InvalidationRoutingKey routes PeriodInvalidatedMessage to every bound queue.
	InvalidationRoutingKey = "period.invalidated"

	failureThreshold = 5
	breakerCooldown  = 30 * time.Second
	publishTimeout   = 5 * time.Second
)

// ErrRejected marks a message that must be dropped rather than requeued.
var ErrRejected = errors.New("message rejected")

// Client owns one connection and channel to the broker. Publishing goes
// through a circuit breaker; consuming reconnects on its own.
type Client struct {
	url      string
	exchange string
	queue    string

	mu   sync.Mutex
	conn *amqp091.Connection
	ch   *amqp091.Channel

	breaker *breaker
}

// NewClient dials url and declares the topology: a durable direct exchange
// and a durable orders queue bound under its own name.
func NewClient(url, exchange, queue string) (*Client, error) {
	c := &Client{
		url:      url,
		exchange: exchange,
		queue:    queue,
		breaker:  newBreaker(failureThreshold, breakerCooldown),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch, c.exchange, c.queue); err != nil {
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()
	return nil
}

func declareTopology(ch *amqp091.Channel, exchange, queue string) error {
	const durable, autoDelete, internal, exclusive, noWait = true, false, false, false, false
	if err := ch.ExchangeDeclare(exchange, "direct", durable, autoDelete, internal, noWait, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, durable, autoDelete, exclusive, noWait, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, queue, exchange, noWait, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}
	return nil
}

func (c *Client) channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

func (c *Client) reconnect() error {
	_ = c.Close()
	return c.connect()
}

// DeclareInvalidationQueue declares and binds the queue a server instance
// receives invalidations on. An empty name yields an exclusive queue named
// by the broker that lives as long as the connection. The actual name is
// returned.
func (c *Client) DeclareInvalidationQueue(name string) (string, error) {
	ch := c.channel()
	if ch == nil {
		return "", amqp091.ErrClosed
	}
	transient := name == ""
	q, err := ch.QueueDeclare(name, !transient, transient, transient, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare invalidation queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, InvalidationRoutingKey, c.exchange, false, nil); err != nil {
		return "", fmt.Errorf("bind invalidation queue: %w", err)
	}
	return q.Name, nil
}

// PublishOrderRecorded queues an order for the ingestion worker.
func (c *Client) PublishOrderRecorded(ctx context.Context, msg *OrderRecordedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published order recorded message",
		"category", msg.CategoryKey,
		"amount_cents", msg.AmountCents,
		"exchange", c.exchange,
		"queue", c.queue)
	return nil
}

// PublishPeriodInvalidated fans an invalidation out to every bound queue.
func (c *Client) PublishPeriodInvalidated(ctx context.Context, year, month int) error {
	body, err := NewPeriodInvalidatedMessage(year, month).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.publish(ctx, InvalidationRoutingKey, body)
}

func (c *Client) publish(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.breaker.allow() {
		return ErrCircuitOpen
	}

	ch := c.channel()
	if ch == nil || ch.IsClosed() {
		if err := c.reconnect(); err != nil {
			c.breaker.failure()
			return fmt.Errorf("reconnect: %w", err)
		}
		ch = c.channel()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := ch.PublishWithContext(ctx, c.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		c.breaker.failure()
		return fmt.Errorf("publish to %s: %w", key, err)
	}
	c.breaker.success()
	return nil
}

// Close releases the channel and the connection. Closing twice is harmless.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, amqp091.ErrClosed) {
		return nil
	}
	return err
}
