// Package locale renders amounts and category labels for the user's language.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats amounts as "<symbol> <grouped decimal>" using the
// separators of its language.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter builds a formatter for a BCP-47 locale and an ISO-4217 code.
// An empty code picks the currency of the locale's explicit region, falling
// back to EUR; an unparseable locale falls back to English.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	unit := currency.EUR
	code = strings.TrimSpace(code)
	switch {
	case code != "":
		u, err := currency.ParseISO(code)
		if err != nil {
			return nil, fmt.Errorf("parse currency %q: %w", code, err)
		}
		unit = u
	default:
		if _, conf := tag.Region(); conf == language.Exact {
			if u, conf := currency.FromTag(tag); conf != language.No {
				unit = u
			}
		}
	}
	return &Formatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

// Format renders amount with two decimals.
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprintf("%v %v", currency.Symbol(f.unit), number.Decimal(amount, number.Scale(2)))
}

// Currency returns the ISO code in use.
func (f *Formatter) Currency() string {
	return f.unit.String()
}
