package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/catalog"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Catalog string
	Debug   bool

	logger *zap.Logger
}

// NewRootCommand creates the vi-cue command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "vi-cue",
		Short:         "Play interactive cues in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := setupLogging(opts.Debug)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Catalog, "catalog", "c", "", "cue catalog file (default: built-in)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "write debug logs to "+logDir+"/"+logFileName)

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))

	return cmd
}

// loadCatalog returns the catalog named by --catalog or the built-in one
func (o *RootOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(o.Catalog)
}

func (o *RootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// NewListCommand prints the cues in the catalog
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cues in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			return writeList(cmd.OutOrStdout(), cat)
		},
	}
}

func writeList(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTAGES\tGESTURES\tGATE\tTIMED")
	for _, def := range cat.Definitions() {
		gate := "-"
		if len(def.Gestures) > 0 {
			gate = def.Gate.String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			def.Name, len(def.Plan.Stages), len(def.Gestures), gate, def.Plan.Duration())
	}
	return tw.Flush()
}

// NewValidateCommand checks a catalog file
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a cue catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(args[0])
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %v\n", err)
				return err
			}
			opts.log().Debug("catalog valid", zap.String("path", args[0]), zap.Int("cues", cat.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d cues valid\n", cat.Len())
			return nil
		},
	}
}
