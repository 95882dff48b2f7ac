package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

type handlerFunc func(context.Context, []byte) error

// ConsumeOrders consumes the orders queue until ctx is done, reconnecting
// with exponential backoff when the broker goes away.
func (c *Client) ConsumeOrders(ctx context.Context, handler func(context.Context, *OrderRecordedMessage) error) error {
	declare := func() (string, error) { return c.queue, nil }
	return c.consume(ctx, declare, func(ctx context.Context, body []byte) error {
		msg, err := OrderRecordedMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: unmarshal order: %v", ErrRejected, err)
		}
		return handler(ctx, msg)
	})
}

// ConsumeInvalidations consumes the invalidation queue named queue (see
// DeclareInvalidationQueue). The queue is declared again after every
// reconnect since broker-named queues die with their connection.
func (c *Client) ConsumeInvalidations(ctx context.Context, queue string, handler func(context.Context, *PeriodInvalidatedMessage) error) error {
	declare := func() (string, error) { return c.DeclareInvalidationQueue(queue) }
	return c.consume(ctx, declare, func(ctx context.Context, body []byte) error {
		msg, err := PeriodInvalidatedMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: unmarshal invalidation: %v", ErrRejected, err)
		}
		return handler(ctx, msg)
	})
}

// consume runs deliveries through handle. Connection errors trigger a
// reconnect after a backoff; any other error ends the loop.
func (c *Client) consume(ctx context.Context, declare func() (string, error), handle handlerFunc) error {
	for attempt := 0; ; {
		queue, err := declare()
		if err == nil {
			err = c.drain(ctx, queue, handle)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"queue", queue,
			"attempt", attempt,
			"backoff", wait,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.reconnect(); err != nil {
			slog.ErrorContext(ctx, "AMQP reconnect failed", "error", err)
			continue
		}
		attempt = 0
	}
}

// drain consumes queue with manual acks until ctx is done or the delivery
// channel closes.
func (c *Client) drain(ctx context.Context, queue string, handle handlerFunc) error {
	ch := c.channel()
	if ch == nil {
		return amqp091.ErrClosed
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	slog.InfoContext(ctx, "Started consuming messages", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries of %s closed: %w", queue, amqp091.ErrClosed)
			}
			handleDelivery(ctx, d, handle)
		}
	}
}

// handleDelivery acks on success, drops rejected messages and requeues
// everything else.
func handleDelivery(ctx context.Context, d amqp091.Delivery, handle handlerFunc) {
	err := handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrRejected):
		slog.ErrorContext(ctx, "Dropping rejected message", "error", err)
		_ = d.Nack(false, false)
	default:
		slog.ErrorContext(ctx, "Failed to handle message, requeueing", "error", err)
		_ = d.Nack(false, true)
	}
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

var connectionErrorHints = []string{
	"connection refused",
	"connection closed",
	"eof",
	"broken pipe",
	"closed network connection",
	"channel/connection is not open",
}

func isConnectionError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, amqp091.ErrClosed):
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectionErrorHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
