package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/clock"
	"github.com/lixenwraith/vi-cue/cue"
	"github.com/lixenwraith/vi-cue/gesture"
	"github.com/lixenwraith/vi-cue/sequencer"
	"github.com/lixenwraith/vi-cue/status"
)

// errUnfinished is returned when a simulated cue never reaches its terminal stage
var errUnfinished = errors.New("cue did not finish")

const (
	simSurface = 100.0
	simTick    = 10 * time.Millisecond
	simLimit   = time.Hour
)

// NewSimulateCommand runs a cue headless on a manual clock with a scripted drag
func NewSimulateCommand(opts *RootOptions) *cobra.Command {
	var steps int
	var stepDelay time.Duration
	var stats bool

	cmd := &cobra.Command{
		Use:   "simulate <cue>",
		Short: "Run a cue without a terminal and print its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			def, err := cat.Lookup(args[0])
			if err != nil {
				return err
			}
			var reg *status.Registry
			if stats {
				reg = status.NewRegistry()
			}
			if err := simulate(cmd.OutOrStdout(), def, steps, stepDelay, reg, opts.log()); err != nil {
				return err
			}
			if reg != nil {
				fmt.Fprintln(cmd.OutOrStdout(), reg.Summary())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 10, "pointer moves per drag")
	cmd.Flags().DurationVar(&stepDelay, "step-delay", 50*time.Millisecond, "time between pointer moves")
	cmd.Flags().BoolVar(&stats, "stats", false, "print engine metrics after the run")
	return cmd
}

// simulate plays def to completion, dragging every gesture end to end when the cue is interactive
func simulate(w io.Writer, def cue.Definition, steps int, stepDelay time.Duration, reg *status.Registry, logger *zap.Logger) error {
	if steps < 1 {
		steps = 1
	}
	start := time.Unix(0, 0).UTC()
	clk := clock.NewManual(start)
	stamp := func() time.Duration { return clk.Now().Sub(start) }

	finished := false
	opts := []cue.Option{
		cue.OnStage(func(st sequencer.Stage) { fmt.Fprintf(w, "%-8s stage %s\n", stamp(), st) }),
		cue.OnFinished(func() {
			finished = true
			fmt.Fprintf(w, "%-8s finished\n", stamp())
		}),
		cue.WithLogger(logger),
		cue.WithStatus(reg),
	}
	for _, name := range def.GestureNames() {
		opts = append(opts, cue.WithSurface(name, gesture.StaticSurface{Width: simSurface, Height: simSurface}, nil))
	}

	cu, err := cue.Mount(def, clk, opts...)
	if err != nil {
		return err
	}
	defer cu.Dispose()

	for !finished && stamp() < simLimit {
		if !cu.Interactive() {
			clk.Advance(simTick)
			continue
		}
		for _, name := range cu.Gestures() {
			if !simulateDrag(cu, clk, name, steps, stepDelay) {
				continue
			}
			fmt.Fprintf(w, "%-8s drag %s %.2f\n", stamp(), name, cu.Progress(name))
		}
	}
	if !finished {
		return fmt.Errorf("%s: %w", def.Name, errUnfinished)
	}
	return nil
}

// simulateDrag sweeps name from its zero end to its full end
func simulateDrag(cu *cue.Cue, clk *clock.Manual, name string, steps int, stepDelay time.Duration) bool {
	def := cu.Definition()
	axis := gesture.AxisX
	for _, g := range def.Gestures {
		if g.Name == name {
			axis = g.Axis
		}
	}
	point := func(f float64) (float64, float64) {
		switch axis {
		case gesture.AxisY:
			return simSurface / 2, simSurface * (1 - f)
		case gesture.AxisBoth:
			return simSurface * f, simSurface * (1 - f)
		default:
			return simSurface * f, simSurface / 2
		}
	}

	x, y := point(0)
	if !cu.Start(name, x, y) {
		return false
	}
	for i := 1; i <= steps; i++ {
		clk.Advance(stepDelay)
		x, y = point(float64(i) / float64(steps))
		cu.Move(name, x, y)
	}
	cu.End(name)
	return true
}
