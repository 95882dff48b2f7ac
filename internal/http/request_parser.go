// Package http exposes the Activity view and order ingestion as a JSON API.
//
// This file implements parsing and validation of request parameters and
// bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"activity/internal/chart"
	"activity/internal/core"
	"activity/internal/period"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// ActivityParams selects a period in the navigation window and an optional
// highlighted segment. A nil State means the navigator's initial period.
type ActivityParams struct {
	State     *period.State
	Selection chart.Selection
}

// ParseActivityParams reads year_index, month_index and selected from query.
// A missing index keeps the navigator's initial value for that axis; the
// navigator clamps out-of-range values.
func ParseActivityParams(query url.Values, initial period.State) (ActivityParams, error) {
	var p ActivityParams
	st := initial
	set := false

	if v := strings.TrimSpace(query.Get("year_index")); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid year_index %q", v)
		}
		st.YearIndex, set = i, true
	}
	if v := strings.TrimSpace(query.Get("month_index")); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid month_index %q", v)
		}
		st.MonthIndex, set = i, true
	}
	if set {
		p.State = &st
	}
	if v := strings.TrimSpace(query.Get("selected")); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid selected %q", v)
		}
		p.Selection = chart.Selected(i)
	}
	return p, nil
}

// HitRequest is the body of POST /api/activity/hit.
type HitRequest struct {
	YearIndex  *int    `json:"year_index"`
	MonthIndex *int    `json:"month_index"`
	Selected   *int    `json:"selected"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Params converts the request to activity parameters.
func (h HitRequest) Params(initial period.State) ActivityParams {
	var p ActivityParams
	if h.YearIndex != nil || h.MonthIndex != nil {
		st := initial
		if h.YearIndex != nil {
			st.YearIndex = *h.YearIndex
		}
		if h.MonthIndex != nil {
			st.MonthIndex = *h.MonthIndex
		}
		p.State = &st
	}
	if h.Selected != nil {
		p.Selection = chart.Selected(*h.Selected)
	}
	return p
}

// OrderRequest is the body of POST /api/orders. Amount is a decimal string
// in major units ("12.34" or "12,34").
type OrderRequest struct {
	Date        string `json:"date"`
	Reference   string `json:"reference"`
	CategoryKey string `json:"category_key"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

// Order validates the request and converts it to a domain order. An empty
// date means today and an empty status means ordered.
func (o OrderRequest) Order(now time.Time) (core.Order, error) {
	date := core.NewDate(now.Year(), int(now.Month()), now.Day())
	if v := strings.TrimSpace(o.Date); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return core.Order{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", v)
		}
		date = core.Date{Time: t}
	}
	cents, err := core.ParseDecimalToCents(o.Amount)
	if err != nil {
		return core.Order{}, err
	}
	status := core.OrderStatus(strings.TrimSpace(o.Status))
	if status == "" {
		status = core.StatusOrdered
	}
	order := core.Order{
		Date:        date,
		Reference:   sanitizeInput(o.Reference),
		CategoryKey: sanitizeInput(o.CategoryKey),
		Amount:      core.Money{Cents: cents},
		Status:      status,
	}
	if err := order.Validate(); err != nil {
		return core.Order{}, err
	}
	return order, nil
}

// DecodeJSON decodes a single JSON object from the request body, rejecting
// unknown fields and oversized bodies.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
