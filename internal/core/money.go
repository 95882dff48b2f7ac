package core

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// maxWholeUnits keeps whole*100 inside int64.
const maxWholeUnits = math.MaxInt64 / 100

// ParseDecimalToCents converts a positive decimal amount, with a dot or a
// comma as separator, to cents. Digits past the second decimal round half
// up on the third. Signs, zero and anything but digits are rejected with
// ErrInvalidAmount.
//
//	ParseDecimalToCents("12,34")  // 1234
//	ParseDecimalToCents("12.345") // 1235
func ParseDecimalToCents(s string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), ".")
	if (whole == "" && frac == "") || !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxWholeUnits {
		return 0, ErrInvalidAmount
	}

	// Pad to three digits: two kept, one deciding the rounding.
	frac = (frac + "000")[:3]
	cents := units*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		cents++
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Units returns the value in major currency units for display and charting.
// Arithmetic on stored amounts stays in cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// ParseAmount leniently converts an untrusted provider value to a finite
// number. Any Go integer or float kind, Money, json.Number and numeric text
// (dot or comma separator) are accepted; the sign is preserved. ok is false
// for nil, non-numeric text, NaN and infinities.
func ParseAmount(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case Money:
		return x.Units(), true
	case json.Number:
		return parseNumericString(string(x))
	case string:
		return parseNumericString(x)
	case []byte:
		return parseNumericString(string(x))
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		f = float64(rv.Int())
	case rv.CanUint():
		f = float64(rv.Uint())
	case rv.CanFloat():
		f = rv.Float()
	default:
		return 0, false
	}
	if !finite(f) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
