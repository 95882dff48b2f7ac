package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"activity/internal/core"
	"activity/internal/stats"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valuesGetter is the slice of the Sheets API the client needs.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type sheetsValues struct {
	svc *gsheet.Service
}

func (s sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Client reads the yearly "<year> <base>" dashboard sheets. Each sheet holds
// a Primary/Secondary × Jan..Dec matrix; only primary rows are charted.
type Client struct {
	values        valuesGetter
	spreadsheetID string
	dashboardBase string
	now           func() time.Time
}

// Ensure interface conformance
var (
	_ stats.PeriodDataProvider = (*Client)(nil)
	_ stats.TaxonomyReader     = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, dashboardBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(sheetsValues{svc: svc}, spreadsheetID, dashboardBase), nil
}

func newClient(values valuesGetter, spreadsheetID, dashboardBase string) *Client {
	if strings.TrimSpace(dashboardBase) == "" {
		dashboardBase = "Dashboard"
	}
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		dashboardBase: dashboardBase,
		now:           time.Now,
	}
}

// credentialSources lists, in priority order, where the service account key
// may come from. The bool marks variables holding a file path.
var credentialSources = []struct {
	env  string
	path bool
}{
	{"GOOGLE_SERVICE_ACCOUNT_JSON", false},
	{"GOOGLE_SERVICE_ACCOUNT_FILE", true},
	{"GOOGLE_APPLICATION_CREDENTIALS", true},
}

func serviceAccountKey() ([]byte, error) {
	for _, src := range credentialSources {
		v := strings.TrimSpace(os.Getenv(src.env))
		if v == "" {
			continue
		}
		if !src.path {
			return []byte(v), nil
		}
		b, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read service account file %s: %w", src.env, err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	key, err := serviceAccountKey()
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Creating read-only Sheets service", "scope", gsheet.SpreadsheetsReadonlyScope)
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(key),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}

// FetchPeriod reads the dashboard of year and returns the month column of
// every primary row. Cells are passed through untouched; sanitizing is left
// to the chart aggregator.
func (c *Client) FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error) {
	if month < 1 || month > 12 {
		return core.PeriodStats{}, fmt.Errorf("invalid month: %d", month)
	}
	values, err := c.readDashboard(ctx, year)
	if err != nil {
		return core.PeriodStats{}, err
	}
	return parseDashboard(values, year, month)
}

// ListCategories returns the primary rows of the current year's dashboard.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	values, err := c.readDashboard(ctx, c.now().Year())
	if err != nil {
		return nil, err
	}
	return parseTaxonomy(values)
}

func (c *Client) readDashboard(ctx context.Context, year int) ([][]any, error) {
	if c.values == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:R80", yearPrefixedName(c.dashboardBase, year))
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return values, nil
}

var yearPrefix = regexp.MustCompile(`^(19|2[0-9])[0-9]{2} `)

// yearPrefixedName returns "<year> <base>" unless base already names a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" || yearPrefix.MatchString(base) {
		return base
	}
	return strconv.Itoa(year) + " " + base
}
