// Command activityctl inspects the Activity chart from a terminal and bulk
// imports orders into the configured backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"activity/internal/activity"
	"activity/internal/backend"
	"activity/internal/chart"
	"activity/internal/cli"
	"activity/internal/config"
	applog "activity/internal/log"
	"activity/internal/period"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is shared by every subcommand. It is populated in PersistentPreRunE.
type env struct {
	envFile  string
	logLevel string

	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
	loader  *activity.Loader
	builder *activity.Builder
	now     func() time.Time
}

func newRootCmd() *cobra.Command {
	e := &env{now: time.Now}
	root := &cobra.Command{
		Use:           "activityctl",
		Short:         "Browse monthly spending by category and import orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.backend.Close()
		},
	}
	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newChartCmd(e), newHitCmd(e), newBrowseCmd(e), newImportCmd(e))
	return root
}

func (e *env) open(ctx context.Context) error {
	cli.LoadEnvFile(e.envFile)
	cfg := config.Load()
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	e.logger = cli.SetupLogger(os.Stderr, cfg.LogLevel, applog.ComponentCLI)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	res, err := cli.OpenBackend(ctx, e.logger, cfg)
	if err != nil {
		return err
	}
	builder, err := cli.NewBuilder(cfg)
	if err != nil {
		res.Close()
		return err
	}
	e.cfg = cfg
	e.backend = res
	e.builder = builder
	e.loader = activity.NewLoader(res.Provider, cfg.CacheSize, cfg.CacheTTL)
	return nil
}

func (e *env) session() *activity.Session {
	return activity.NewSession(e.loader, e.builder, e.cfg.YearWindow, e.now())
}

// positionFlags select the period and highlighted segment. Negative values
// keep the defaults: the current month, nothing selected.
type positionFlags struct {
	yearIndex  int
	monthIndex int
	selected   int
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.yearIndex, "year-index", -1, "year offset from the current year (0 = current)")
	cmd.Flags().IntVar(&p.monthIndex, "month-index", -1, "month index, 0 = January")
	cmd.Flags().IntVar(&p.selected, "selected", -1, "highlighted segment index")
}

func (p positionFlags) state(initial period.State) period.State {
	st := initial
	if p.yearIndex >= 0 {
		st.YearIndex = p.yearIndex
	}
	if p.monthIndex >= 0 {
		st.MonthIndex = p.monthIndex
	}
	return st
}

// load positions a fresh session on the requested period and fetches it.
func (e *env) load(ctx context.Context, p positionFlags) (*activity.Session, activity.View, error) {
	sess := e.session()
	initial := period.New(e.cfg.YearWindow, e.now()).State()
	sess.Restore(p.state(initial), chart.Selected(p.selected))
	v, err := sess.Refresh(ctx)
	if err != nil {
		return nil, activity.View{}, err
	}
	return sess, v, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
