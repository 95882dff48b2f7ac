package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	valid := map[string]int64{
		"1":      100,
		"1.0":    100,
		"1.23":   123,
		"1,23":   123,
		"0.01":   1,
		".5":     50,
		"1.005":  101,
		"12.344": 1234,
		" 2.50 ": 250,
	}
	for in, want := range valid {
		got, err := ParseDecimalToCents(in)
		if err != nil || got != want {
			t.Errorf("ParseDecimalToCents(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", ".", "-1", "+1", "0", "0.004", "abc", "1.2.3", "1 000", "99999999999999999999"} {
		if _, err := ParseDecimalToCents(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		out  float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 300, 300, true},
		{"int64", int64(-4), -4, true},
		{"uint8", uint8(7), 7, true},
		{"money", Money{Cents: 1234}, 12.34, true},
		{"json number", json.Number("99.9"), 99.9, true},
		{"string dot", " 10.25 ", 10.25, true},
		{"string comma", "10,25", 10.25, true},
		{"bytes", []byte("3"), 3, true},
		{"nil", nil, 0, false},
		{"not a number", "N/A", 0, false},
		{"empty", "", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf string", "Inf", 0, false},
		{"bool", true, 0, false},
		{"struct", struct{}{}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAmount(tc.in)
			if ok != tc.ok {
				t.Fatalf("ParseAmount(%v) ok=%v, want %v", tc.in, ok, tc.ok)
			}
			if math.Abs(got-tc.out) > 1e-9 {
				t.Fatalf("ParseAmount(%v) = %v, want %v", tc.in, got, tc.out)
			}
		})
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 250}).Units(); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}
