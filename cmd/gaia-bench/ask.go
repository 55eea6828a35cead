package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/llm"
	"github.com/bdia-labs/gaia-bench/internal/logging"
)

type askOptions struct {
	taskID    string
	model     string
	steps     bool
	stepsText string
	format    string
}

func newAskCmd(st *benchState) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:     "ask",
		Short:   "Ask a model one benchmark question and record the outcome",
		Args:    cobra.NoArgs,
		PreRunE: st.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.taskID, "task", "", "task id of the question")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config default)")
	cmd.Flags().BoolVar(&opts.steps, "steps", false, "retry with annotator steps")
	cmd.Flags().StringVar(&opts.stepsText, "steps-text", "", "override the stored annotator steps for the retry")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func runAsk(cmd *cobra.Command, st *benchState, opts *askOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("ask: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("ask: nil options")
	}

	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	model := strings.TrimSpace(opts.model)
	if model == "" {
		model = st.cfg.LLM.DefaultModel
	}

	log := logging.New(st.cfg.Logging)
	defer func() { _ = log.Sync() }()

	db, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var files bench.FileResolver
	if strings.TrimSpace(st.cfg.ObjectStore.Bucket) != "" {
		oc, err := newObjstore(st.cfg.ObjectStore)
		if err != nil {
			return err
		}
		if oc != nil {
			files = oc
		}
	}

	registry, err := newRegistry(st.cfg)
	if err != nil {
		return err
	}

	runner := newRunner(db, files, registry, log.Named("bench"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := &bench.AskRequest{TaskID: opts.taskID, Model: model, Steps: opts.stepsText}

	var res *bench.AskResult
	if opts.steps {
		res, err = runner.AskWithSteps(ctx, req)
	} else {
		res, err = runner.Ask(ctx, req)
	}
	if err != nil {
		if res != nil && llm.IsSentinel(res.Response) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Response)
		}
		return err
	}

	return printAskResult(cmd.OutOrStdout(), format, res)
}

func printAskResult(w io.Writer, format outputFormat, res *bench.AskResult) error {
	if res == nil {
		return fmt.Errorf("ask: nil result")
	}
	if format == formatJSON {
		return writeJSON(w, res)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Task:\t%s\n", res.TaskID)
	_, _ = fmt.Fprintf(tw, "Model:\t%s\n", res.Model)
	_, _ = fmt.Fprintf(tw, "Response:\t%s\n", res.Response)
	if res.Category.Valid() {
		_, _ = fmt.Fprintf(tw, "Category:\t%s\n", res.Category)
	}
	_, _ = fmt.Fprintf(tw, "Recorded:\t%v\n", res.Recorded)
	if res.Transcription != "" {
		_, _ = fmt.Fprintf(tw, "Transcription:\t%s\n", truncate(res.Transcription, 120))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if res.AnnotatorSteps != "" {
		_, _ = fmt.Fprintln(w, "\nAnnotator steps are available; retry with --steps.")
	}
	return nil
}
