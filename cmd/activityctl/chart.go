package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"activity/internal/chart"
	apphttp "activity/internal/http"
)

func newChartCmd(e *env) *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the chart view of a month as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := e.load(cmd.Context(), pos)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	pos.register(cmd)
	return cmd
}

func newHitCmd(e *env) *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   "hit X Y",
		Short: "Hit-test a point on the chart and print the touch result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			sess, _, err := e.load(cmd.Context(), pos)
			if err != nil {
				return err
			}
			res := sess.Touch(p)
			return writeJSON(cmd.OutOrStdout(), apphttp.HitResponse{TouchResult: res, View: sess.View()})
		},
	}
	pos.register(cmd)
	return cmd
}

func parsePoint(xs, ys string) (chart.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return chart.Point{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return chart.Point{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	return chart.Point{X: x, Y: y}, nil
}
