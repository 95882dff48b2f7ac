package google

import (
	"fmt"
	"strings"

	"activity/internal/core"
)

var monthHeaders = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// statusRows maps the order-counter rows a dashboard may carry under the
// "Status" primary entry.
var statusRows = map[string]core.OrderStatus{
	"ordered":    core.StatusOrdered,
	"received":   core.StatusReceived,
	"to receive": core.StatusToReceive,
	"to_receive": core.StatusToReceive,
}

type dashboardLayout struct {
	primary, secondary, color, month int
}

func findLayout(headers []string, month int) (dashboardLayout, error) {
	l := dashboardLayout{
		primary:   indexOf(headers, "Primary"),
		secondary: indexOf(headers, "Secondary"),
		color:     indexOf(headers, "Color"),
		month:     -1,
	}
	if month >= 1 && month <= 12 {
		l.month = indexOf(headers, monthHeaders[month-1])
	}
	var missing []string
	if l.primary == -1 {
		missing = append(missing, "Primary")
	}
	if l.secondary == -1 {
		missing = append(missing, "Secondary")
	}
	if month != 0 && l.month == -1 {
		missing = append(missing, "month column")
	}
	if len(missing) > 0 {
		return l, fmt.Errorf("unexpected dashboard header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	return l, nil
}

// parseDashboard converts a values matrix (as returned by Sheets API) into
// the period statistics of month (1-12). Rows with an empty Secondary are
// categories; the "total" row is skipped since totals are recomputed.
// Secondary rows below a "Status" primary carry order counters.
func parseDashboard(values [][]any, year, month int) (core.PeriodStats, error) {
	out := core.PeriodStats{Year: year, Month: month}
	if len(values) == 0 {
		return out, nil
	}
	l, err := findLayout(toStrings(values[0]), month)
	if err != nil {
		return core.PeriodStats{}, err
	}
	inStatus := false
	for _, raw := range values[1:] {
		row := toStrings(raw)
		primary := safeGet(row, l.primary)
		secondary := safeGet(row, l.secondary)
		switch {
		case primary != "":
			inStatus = strings.EqualFold(primary, "status")
			if inStatus || strings.EqualFold(primary, "total") || secondary != "" {
				continue
			}
			out.Categories = append(out.Categories, core.RawCategory{
				Key:    categoryKey(primary),
				Label:  primary,
				Color:  safeGet(row, l.color),
				Amount: rawCell(raw, l.month),
			})
		case inStatus && secondary != "":
			status, ok := statusRows[strings.ToLower(secondary)]
			if !ok {
				continue
			}
			n, ok := core.ParseAmount(rawCell(raw, l.month))
			if !ok || n < 0 {
				continue
			}
			switch status {
			case core.StatusOrdered:
				out.Counters.Ordered += int(n)
			case core.StatusReceived:
				out.Counters.Received += int(n)
			case core.StatusToReceive:
				out.Counters.ToReceive += int(n)
			}
		}
	}
	return out, nil
}

// parseTaxonomy lists the category rows of a dashboard in sheet order.
func parseTaxonomy(values [][]any) ([]core.Category, error) {
	if len(values) == 0 {
		return nil, nil
	}
	l, err := findLayout(toStrings(values[0]), 0)
	if err != nil {
		return nil, err
	}
	var out []core.Category
	seen := map[string]bool{}
	for _, raw := range values[1:] {
		row := toStrings(raw)
		primary := safeGet(row, l.primary)
		if primary == "" || safeGet(row, l.secondary) != "" {
			continue
		}
		if strings.EqualFold(primary, "total") || strings.EqualFold(primary, "status") {
			continue
		}
		key := categoryKey(primary)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, core.Category{Key: key, Label: primary, Color: safeGet(row, l.color)})
	}
	return out, nil
}

// categoryKey derives a stable key from a sheet label: "Other Expenses" -> "other_expenses".
func categoryKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

func rawCell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
