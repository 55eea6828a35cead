package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/scoring"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

type dashboardOptions struct {
	model  string
	level  int
	format string
}

// dashboardView is the JSON shape of the dashboard command output.
type dashboardView struct {
	Models     []scoring.ModelScore      `json:"models"`
	Levels     []int                     `json:"levels"`
	Categories scoring.CategoryBreakdown `json:"categories"`
}

func newDashboardCmd(st *benchState) *cobra.Command {
	var opts dashboardOptions

	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Summarize model scores and response categories",
		Args:    cobra.NoArgs,
		PreRunE: st.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "restrict the category breakdown to one model")
	cmd.Flags().IntVar(&opts.level, "level", 0, "restrict the category breakdown to one level (0 = all)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runDashboard(cmd *cobra.Command, st *benchState, opts *dashboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("dashboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("dashboard: nil options")
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

	recs, err := db.ListOutcomes(ctx, store.OutcomeFilter{})
	if err != nil {
		return err
	}

	rows := make([]scoring.Outcome, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		rows = append(rows, scoring.Outcome{
			TaskID:   rec.TaskID,
			Model:    rec.Model,
			Level:    rec.Level,
			Category: rec.Category,
		})
	}

	report := scoring.Aggregate(rows)
	levels := levelColumns(report)
	counts := scoring.CategoryCounts(rows, opts.model, opts.level)

	if format == formatJSON {
		view := dashboardView{Levels: levels, Categories: counts}
		for _, model := range report.Models() {
			if ms, ok := report.Model(model); ok {
				view.Models = append(view.Models, ms)
			}
		}
		return writeJSON(cmd.OutOrStdout(), view)
	}

	out := cmd.OutOrStdout()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "MODEL\tAVG"
	for _, level := range levels {
		header += fmt.Sprintf("\tL%d", level)
	}
	_, _ = fmt.Fprintln(tw, header)
	for _, model := range report.Models() {
		ms, ok := report.Model(model)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s\t%.1f", ms.Model, ms.Average)
		for _, level := range levels {
			if ls, ok := ms.Levels[level]; ok {
				line += fmt.Sprintf("\t%.1f", ls.Score)
			} else {
				line += "\t-"
			}
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CATEGORY\tCOUNT")
	_, _ = fmt.Fprintf(tw, "%s\t%d\n", gaia.CategoryCorrectAsIs, counts.CorrectAsIs)
	_, _ = fmt.Fprintf(tw, "%s\t%d\n", gaia.CategoryCorrectAfterSteps, counts.CorrectAfterSteps)
	_, _ = fmt.Fprintf(tw, "%s\t%d\n", gaia.CategoryWrongAnswer, counts.WrongAnswer)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\n%d attempts\n", counts.Total())
	return nil
}

// levelColumns returns the table columns: the standard GAIA levels plus any
// extra level that shows up in the data.
func levelColumns(report *scoring.Report) []int {
	seen := map[int]bool{1: true, 2: true, 3: true}
	for _, level := range report.Levels() {
		seen[level] = true
	}
	out := make([]int, 0, len(seen))
	for level := range seen {
		out = append(out, level)
	}
	sort.Ints(out)
	return out
}
