package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bdia-labs/gaia-bench/internal/store"
)

type questionsOptions struct {
	level     int
	extension string
	split     string
	limit     int
	format    string
}

func newQuestionsCmd(st *benchState) *cobra.Command {
	var opts questionsOptions

	cmd := &cobra.Command{
		Use:     "questions",
		Short:   "List stored benchmark questions",
		Args:    cobra.NoArgs,
		PreRunE: st.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuestions(cmd, st, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.level, "level", 0, "filter by difficulty level (1-3, 0 = all)")
	cmd.Flags().StringVar(&opts.extension, "extension", "", "filter by attachment extension (e.g. pdf)")
	cmd.Flags().StringVar(&opts.split, "split", "", "filter by dataset split")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "return at most this many questions (0 = all)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runQuestions(cmd *cobra.Command, st *benchState, opts *questionsOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("questions: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("questions: nil options")
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

	qs, err := db.ListQuestions(ctx, store.QuestionFilter{
		Level:     opts.level,
		Extension: opts.extension,
		Split:     opts.split,
		Limit:     opts.limit,
	})
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), qs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TASK\tLEVEL\tFILE\tQUESTION")
	for _, q := range qs {
		if q == nil {
			continue
		}
		file := q.FileName
		if file == "" {
			file = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", q.TaskID, q.Level, file, truncate(q.Question, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d questions\n", len(qs))
	return nil
}
