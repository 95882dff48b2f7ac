package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"activity/internal/activity"
	"activity/internal/chart"
)

const browseHelp = `commands:
  older | o          previous month
  newer | n          next month
  year N             jump to year index N (0 = current year)
  month N            jump to month index N (0 = January)
  touch X Y          hit-test a point on the ring
  select I           toggle legend entry I
  show | s           print the current view
  quit | q           exit`

func newBrowseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Navigate months and highlight categories interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := e.session()
			if _, err := sess.Refresh(cmd.Context()); err != nil {
				return err
			}
			return runBrowse(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

type browseOp int

const (
	opNone browseOp = iota
	opOlder
	opNewer
	opYear
	opMonth
	opTouch
	opSelect
	opShow
	opHelp
	opQuit
)

type browseCommand struct {
	op   browseOp
	n    int
	x, y float64
}

var errUnknownCommand = errors.New("unknown command")

func parseCommand(line string) (browseCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return browseCommand{op: opNone}, nil
	}
	name, args := fields[0], fields[1:]

	wantArgs := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "older", "o":
		return browseCommand{op: opOlder}, wantArgs(0)
	case "newer", "n":
		return browseCommand{op: opNewer}, wantArgs(0)
	case "show", "s":
		return browseCommand{op: opShow}, wantArgs(0)
	case "help", "h", "?":
		return browseCommand{op: opHelp}, nil
	case "quit", "q", "exit":
		return browseCommand{op: opQuit}, nil
	case "year", "month", "select":
		if err := wantArgs(1); err != nil {
			return browseCommand{}, err
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return browseCommand{}, fmt.Errorf("%s: invalid index %q", name, args[0])
		}
		op := map[string]browseOp{"year": opYear, "month": opMonth, "select": opSelect}[name]
		return browseCommand{op: op, n: n}, nil
	case "touch", "t":
		if err := wantArgs(2); err != nil {
			return browseCommand{}, err
		}
		p, err := parsePoint(args[0], args[1])
		if err != nil {
			return browseCommand{}, fmt.Errorf("touch: %w", err)
		}
		return browseCommand{op: opTouch, x: p.X, y: p.Y}, nil
	}
	return browseCommand{}, fmt.Errorf("%w %q, type help", errUnknownCommand, name)
}

// runBrowse reads commands from in until EOF or quit. Command errors are
// reported and the loop continues; only cancellation ends it with an error.
func runBrowse(ctx context.Context, sess *activity.Session, in io.Reader, out io.Writer) error {
	renderView(out, sess.View())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		var v activity.View
		switch cmd.op {
		case opNone:
			continue
		case opQuit:
			return nil
		case opHelp:
			fmt.Fprintln(out, browseHelp)
			continue
		case opShow:
			v = sess.View()
		case opOlder:
			v, err = sess.GoOlder(ctx)
		case opNewer:
			v, err = sess.GoNewer(ctx)
		case opYear:
			v, err = sess.SetYear(ctx, cmd.n)
		case opMonth:
			v, err = sess.SetMonth(ctx, cmd.n)
		case opSelect:
			v = sess.SelectLegend(cmd.n)
		case opTouch:
			res := sess.Touch(chart.Point{X: cmd.x, Y: cmd.y})
			if !res.Hit {
				fmt.Fprintln(out, "no segment at that point")
				continue
			}
			v = sess.View()
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, err)
			continue
		}
		renderView(out, v)
	}
}

func renderView(out io.Writer, v activity.View) {
	fmt.Fprintf(out, "%s  total %s", v.Period.Label, v.TotalFormatted)
	if v.Failed {
		fmt.Fprint(out, "  (data unavailable)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  ordered %d  received %d  to receive %d\n",
		v.Counters.Ordered, v.Counters.Received, v.Counters.ToReceive)
	if len(v.Legend) == 0 {
		fmt.Fprintln(out, "  no spending")
		return
	}
	for i, item := range v.Legend {
		mark := " "
		switch {
		case item.Active:
			mark = ">"
		case item.Dimmed:
			mark = "."
		}
		fmt.Fprintf(out, " %s %2d. %-20s %5.1f%%  %s\n", mark, i, item.Label, item.Percent, item.AmountFormatted)
	}
}
