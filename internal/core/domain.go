// Package core holds the domain values shared by every layer: orders, the
// category taxonomy, per-period statistics and money amounts.
package core

import (
	"errors"
	"strings"
	"time"
)

// MaxReferenceLength bounds Order.Reference.
const MaxReferenceLength = 64

var (
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category key")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrReferenceTooLong = errors.New("reference too long (max 64 characters)")
)

// Date is a calendar day in UTC.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	if m := d.Month(); m < 1 || m > 12 {
		return ErrInvalidMonth
	}
	if day := d.Day(); day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Day() int   { return d.Time.Day() }

// Money is an amount in minor currency units.
type Money struct {
	Cents int64
}

// Validate accepts strictly positive amounts only.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

type OrderStatus string

const (
	StatusOrdered   OrderStatus = "ordered"
	StatusReceived  OrderStatus = "received"
	StatusToReceive OrderStatus = "to_receive"
)

func (s OrderStatus) IsValid() bool {
	return s == StatusOrdered || s == StatusReceived || s == StatusToReceive
}

// Order is a single purchase attributed to a spending category.
type Order struct {
	Date        Date
	Reference   string // upstream order reference, optional
	CategoryKey string
	Amount      Money
	Status      OrderStatus
}

// Validate returns the first problem found, in field order.
func (o Order) Validate() error {
	if err := o.Date.Validate(); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(o.CategoryKey) == "":
		return ErrEmptyCategory
	case len(o.Reference) > MaxReferenceLength:
		return ErrReferenceTooLong
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if !o.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Category is a taxonomy entry as stored by the providers.
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// RawCategory is a per-period category record as returned by a provider.
// Amount is untrusted: it may be a number, a string, nil or garbage.
type RawCategory struct {
	Key    string
	Label  string
	Color  string
	Amount any
}

// CategoryRecord is a sanitized category with a non-negative amount.
type CategoryRecord struct {
	Key    string
	Label  string
	Color  string
	Amount float64
}

// Counters summarise order states for a period.
type Counters struct {
	Ordered   int `json:"ordered"`
	Received  int `json:"received"`
	ToReceive int `json:"to_receive"`
}

// Add counts one order in status. Unknown states are ignored.
func (c *Counters) Add(status OrderStatus) {
	switch status {
	case StatusOrdered:
		c.Ordered++
	case StatusReceived:
		c.Received++
	case StatusToReceive:
		c.ToReceive++
	}
}
