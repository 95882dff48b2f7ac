package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"activity/internal/amqp"
	"activity/internal/cli"
	"activity/internal/core"
	apphttp "activity/internal/http"
	"activity/internal/services"
)

func newImportCmd(e *env) *cobra.Command {
	var (
		publish bool
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Record orders from a JSON array of order objects",
		Long: `Reads a JSON array of orders shaped like the body of POST /api/orders:
  [{"date": "2026-03-01", "category_key": "food", "amount": "12.50", "status": "received"}]
Orders are validated first; nothing is recorded when any entry is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			orders, err := decodeOrders(f, e.now())
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d orders valid\n", len(orders))
				return nil
			}

			ctx := cmd.Context()
			sink, closeSink, err := e.openSink(publish)
			if err != nil {
				return err
			}
			defer closeSink()

			rep := importOrders(ctx, orders, sink, cmd.ErrOrStderr())
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, failed %d\n", rep.Imported, len(rep.Failures))
			for _, fail := range rep.Failures {
				fmt.Fprintf(cmd.OutOrStdout(), "  #%d: %v\n", fail.Index, fail.Err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if len(rep.Failures) > 0 {
				return fmt.Errorf("%d orders not imported", len(rep.Failures))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "queue orders for the ingest worker instead of recording them directly")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without recording anything")
	return cmd
}

type orderSink func(ctx context.Context, o core.Order) error

// openSink records through OrderService, notifying running servers when a
// broker is configured, or publishes to the orders queue.
func (e *env) openSink(publish bool) (orderSink, func(), error) {
	client, err := cli.ConnectAMQP(e.logger, e.cfg, publish)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if client != nil {
			client.Close()
		}
	}

	if publish {
		if client == nil {
			return nil, nil, errors.New("--publish requires AMQP_URL")
		}
		return func(ctx context.Context, o core.Order) error {
			return client.PublishOrderRecorded(ctx, amqp.NewOrderRecordedMessage(o))
		}, closeClient, nil
	}

	if e.backend.Recorder == nil {
		closeClient()
		return nil, nil, fmt.Errorf("backend %q is read-only", e.cfg.DataBackend)
	}
	var publisher services.InvalidationPublisher
	if client != nil {
		publisher = client
	}
	svc := services.NewOrderService(e.backend.Recorder, e.loader, publisher)
	return func(ctx context.Context, o core.Order) error {
		_, err := svc.RecordOrder(ctx, o)
		return err
	}, closeClient, nil
}

// decodeOrders parses and validates every entry before anything is stored.
func decodeOrders(r io.Reader, now time.Time) ([]core.Order, error) {
	var reqs []apphttp.OrderRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]core.Order, 0, len(reqs))
	var errs []error
	for i, req := range reqs {
		o, err := req.Order(now)
		if err != nil {
			errs = append(errs, fmt.Errorf("order #%d: %w", i, err))
			continue
		}
		orders = append(orders, o)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return orders, nil
}

type importFailure struct {
	Index int
	Err   error
}

type importReport struct {
	Imported int
	Failures []importFailure
}

// importOrders stores orders one at a time, drawing progress on progress.
// A failed order is reported and the import continues; cancellation stops it.
func importOrders(ctx context.Context, orders []core.Order, sink orderSink, progress io.Writer) importReport {
	bar := progressbar.NewOptions(len(orders),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	var rep importReport
	for i, o := range orders {
		if ctx.Err() != nil {
			break
		}
		if err := sink(ctx, o); err != nil {
			rep.Failures = append(rep.Failures, importFailure{Index: i, Err: err})
		} else {
			rep.Imported++
		}
		bar.Add(1)
	}
	return rep
}
