package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bdia-labs/gaia-bench/internal/store"
)

type outcomesOptions struct {
	taskID string
	model  string
	limit  int
	format string
}

func newOutcomesCmd(st *benchState) *cobra.Command {
	var opts outcomesOptions

	cmd := &cobra.Command{
		Use:     "outcomes",
		Short:   "List recorded model outcomes",
		Args:    cobra.NoArgs,
		PreRunE: st.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutcomes(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.taskID, "task", "", "filter by task id")
	cmd.Flags().StringVar(&opts.model, "model", "", "filter by model name")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "return at most this many outcomes (0 = all)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runOutcomes(cmd *cobra.Command, st *benchState, opts *outcomesOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("outcomes: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("outcomes: nil options")
	}

	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	db, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	recs, err := db.ListOutcomes(ctx, store.OutcomeFilter{
		TaskID: opts.taskID,
		Model:  opts.model,
		Limit:  opts.limit,
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), recs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TASK\tMODEL\tCATEGORY\tSTEPS\tLEVEL\tWHEN")
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		steps := "-"
		if rec.WithSteps {
			steps = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.TaskID, rec.Model, rec.Category, steps, rec.Level,
			rec.CreatedAt.UTC().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d outcomes\n", len(recs))
	return nil
}
