package locale

import (
	"strings"

	"golang.org/x/text/language"
)

var builtinLabels = map[language.Tag]map[string]string{
	language.English: {
		"electronics": "Electronics",
		"groceries":   "Groceries",
		"fashion":     "Fashion",
		"home":        "Home",
		"books":       "Books",
		"health":      "Health",
		"other":       "Other",
	},
	language.Italian: {
		"electronics": "Elettronica",
		"groceries":   "Alimentari",
		"fashion":     "Moda",
		"home":        "Casa",
		"books":       "Libri",
		"health":      "Salute",
		"other":       "Altro",
	},
}

// LabelResolver maps category keys to labels of the closest supported language.
type LabelResolver struct {
	labels map[string]string
}

// NewLabelResolver matches locale against the built-in catalogs.
func NewLabelResolver(locale string) *LabelResolver {
	supported := []language.Tag{language.English, language.Italian}
	matcher := language.NewMatcher(supported)
	_, idx, _ := matcher.Match(language.Make(strings.TrimSpace(locale)))
	return &LabelResolver{labels: builtinLabels[supported[idx]]}
}

// Resolve returns the localized label of key, else fallback, else key.
func (r *LabelResolver) Resolve(key, fallback string) string {
	if r != nil {
		if l, ok := r.labels[strings.ToLower(strings.TrimSpace(key))]; ok {
			return l
		}
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}
