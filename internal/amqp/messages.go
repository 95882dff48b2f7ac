package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"activity/internal/core"
)

const dateLayout = "2006-01-02"

// OrderRecordedMessage carries an order placed upstream, to be recorded by
// the worker.
type OrderRecordedMessage struct {
	Reference   string    `json:"reference,omitempty"`
	Date        string    `json:"date"`
	CategoryKey string    `json:"category_key"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderRecordedMessage creates a message for o
func NewOrderRecordedMessage(o core.Order) *OrderRecordedMessage {
	return &OrderRecordedMessage{
		Reference:   o.Reference,
		Date:        o.Date.Format(dateLayout),
		CategoryKey: o.CategoryKey,
		AmountCents: o.Amount.Cents,
		Status:      string(o.Status),
		Timestamp:   time.Now(),
	}
}

// Order converts the message back to a validated domain order.
func (m *OrderRecordedMessage) Order() (core.Order, error) {
	d, err := time.Parse(dateLayout, m.Date)
	if err != nil {
		return core.Order{}, fmt.Errorf("parse date %q: %w", m.Date, err)
	}
	o := core.Order{
		Date:        core.Date{Time: d},
		Reference:   m.Reference,
		CategoryKey: m.CategoryKey,
		Amount:      core.Money{Cents: m.AmountCents},
		Status:      core.OrderStatus(m.Status),
	}
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	return o, nil
}

// ToJSON converts the message to JSON bytes
func (m *OrderRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OrderRecordedMessageFromJSON creates a message from JSON bytes
func OrderRecordedMessageFromJSON(data []byte) (*OrderRecordedMessage, error) {
	var msg OrderRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PeriodInvalidatedMessage tells every server instance to drop its cached
// statistics for a month.
type PeriodInvalidatedMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPeriodInvalidatedMessage(year, month int) *PeriodInvalidatedMessage {
	return &PeriodInvalidatedMessage{Year: year, Month: month, Timestamp: time.Now()}
}

func (m *PeriodInvalidatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PeriodInvalidatedMessageFromJSON(data []byte) (*PeriodInvalidatedMessage, error) {
	var msg PeriodInvalidatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Month < 1 || msg.Month > 12 {
		return nil, fmt.Errorf("invalid month %d", msg.Month)
	}
	return &msg, nil
}
