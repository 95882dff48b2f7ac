package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"activity/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, maxBackoff}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("attempt %d: got %v, want %v", attempt, got, w)
		}
	}
	for _, attempt := range []int{-3, 10, 70} {
		got := exponentialBackoff(attempt)
		if got < time.Second || got > maxBackoff {
			t.Errorf("attempt %d: %v outside [1s, %v]", attempt, got, maxBackoff)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	lost := []error{
		errors.New("dial tcp: connection refused"),
		errors.New("Exception (504) Reason: \"channel/connection is not open\""),
		errors.New("unexpected EOF"),
		errors.New("write: broken pipe"),
		errors.New("use of closed network connection"),
		fmt.Errorf("consume: %w", amqp091.ErrClosed),
	}
	for _, err := range lost {
		if !isConnectionError(err) {
			t.Errorf("%v should trigger a reconnect", err)
		}
	}
	for _, err := range []error{nil, errors.New("invalid input"), ErrRejected} {
		if isConnectionError(err) {
			t.Errorf("%v must not trigger a reconnect", err)
		}
	}
}

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func newTestBreaker() (*breaker, *stepClock) {
	clock := &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	b := newBreaker(3, time.Minute)
	b.now = clock.now
	return b, clock
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker()
	if !b.allow() {
		t.Fatal("a new breaker must be closed")
	}
	b.failure()
	b.failure()
	if !b.allow() {
		t.Fatal("breaker opened before the threshold")
	}
	b.failure()
	if b.allow() || b.current() != breakerOpen {
		t.Fatal("breaker should be open after three failures")
	}
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	b, clock := newTestBreaker()
	for i := 0; i < 3; i++ {
		b.failure()
	}

	clock.t = clock.t.Add(time.Minute + time.Second)
	if !b.allow() || b.current() != breakerHalfOpen {
		t.Fatal("cooldown should admit a trial publish")
	}
	if b.allow() {
		t.Fatal("only one publish may be in flight while half-open")
	}
	b.failure()
	if b.current() != breakerOpen {
		t.Fatal("a failed trial must reopen the breaker")
	}
	if b.allow() {
		t.Fatal("a reopened breaker must wait for a fresh cooldown")
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if !b.allow() {
		t.Fatal("cooldown should admit another trial publish")
	}
	b.success()
	if b.current() != breakerClosed || b.failures != 0 {
		t.Fatalf("success should close and reset, state=%d failures=%d", b.current(), b.failures)
	}
	if !b.allow() || !b.allow() {
		t.Fatal("a closed breaker admits every publish")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	b, _ := newTestBreaker()
	client := &Client{exchange: "test_exchange", queue: "test_queue", breaker: b}
	msg := NewOrderRecordedMessage(core.Order{Date: core.NewDate(2026, 3, 1), CategoryKey: "books"})

	t.Run("publish fails when circuit is open", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			b.failure()
		}
		err := client.PublishOrderRecorded(context.Background(), msg)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected circuit breaker error, got: %v", err)
		}
	})

	t.Run("publish respects context cancellation", func(t *testing.T) {
		b.success()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishPeriodInvalidated(ctx, 2026, 3); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}

type fakeAck struct {
	acked, nacked, requeued int
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	if requeue {
		f.requeued++
	}
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error { return f.Nack(0, false, requeue) }

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantAck     int
		wantNack    int
		wantRequeue int
	}{
		{name: "success acks", err: nil, wantAck: 1},
		{name: "rejected drops", err: fmt.Errorf("%w: bad payload", ErrRejected), wantNack: 1},
		{name: "transient requeues", err: errors.New("database locked"), wantNack: 1, wantRequeue: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: []byte("{}")}
			handleDelivery(context.Background(), d, func(context.Context, []byte) error { return tt.err })
			if ack.acked != tt.wantAck || ack.nacked != tt.wantNack || ack.requeued != tt.wantRequeue {
				t.Errorf("got ack=%d nack=%d requeue=%d", ack.acked, ack.nacked, ack.requeued)
			}
		})
	}
}

func TestOrderRecordedMessage(t *testing.T) {
	o := core.Order{
		Date:        core.NewDate(2026, 3, 14),
		Reference:   "A-1",
		CategoryKey: "books",
		Amount:      core.Money{Cents: 1999},
		Status:      core.StatusReceived,
	}
	msg := NewOrderRecordedMessage(o)
	if msg.Timestamp.IsZero() || msg.Date != "2026-03-14" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := OrderRecordedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	got, err := parsed.Order()
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if got.Date.Year() != 2026 || got.Date.Month() != 3 || got.Amount != o.Amount || got.Status != o.Status {
		t.Fatalf("unexpected order: %+v", got)
	}

	bad := &OrderRecordedMessage{Date: "14/03/2026", CategoryKey: "books", AmountCents: 1, Status: "ordered"}
	if _, err := bad.Order(); err == nil {
		t.Error("expected date parse error")
	}
	bad = &OrderRecordedMessage{Date: "2026-03-14", CategoryKey: "books", AmountCents: -5, Status: "ordered"}
	if _, err := bad.Order(); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected invalid amount, got %v", err)
	}
}

func TestPeriodInvalidatedMessage(t *testing.T) {
	body, err := NewPeriodInvalidatedMessage(2026, 3).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	msg, err := PeriodInvalidatedMessageFromJSON(body)
	if err != nil || msg.Year != 2026 || msg.Month != 3 {
		t.Fatalf("unexpected message: %+v err=%v", msg, err)
	}
	if _, err := PeriodInvalidatedMessageFromJSON([]byte(`{"year":2026,"month":13}`)); err == nil {
		t.Error("expected invalid month error")
	}
	if _, err := PeriodInvalidatedMessageFromJSON([]byte(`{"year":"x"}`)); err == nil {
		t.Error("expected unmarshal error")
	}
}
