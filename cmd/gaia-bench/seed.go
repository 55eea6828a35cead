package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
	"github.com/bdia-labs/gaia-bench/internal/hub"
	"github.com/bdia-labs/gaia-bench/internal/logging"
)

type seedOptions struct {
	metadataPath string
	limit        int
	skipFiles    bool
}

func newSeedCmd(st *benchState) *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Import GAIA questions into the store",
		Args:    cobra.NoArgs,
		PreRunE: st.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.metadataPath, "metadata", "", "local metadata JSONL file (skips the hub rows API)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "import at most this many questions (0 = all)")
	cmd.Flags().BoolVar(&opts.skipFiles, "skip-files", false, "do not mirror attachments to object storage")

	return cmd
}

// attachmentSource fetches dataset files from the hub. *hub.Client
// implements it.
type attachmentSource interface {
	DownloadFile(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

// attachmentSink stores dataset files. *objstore.Client implements it.
type attachmentSink interface {
	ObjectKey(name string) string
	ObjectURL(key string) string
	Exists(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, name string, r io.Reader, size int64) (string, error)
}

func runSeed(cmd *cobra.Command, st *benchState, opts *seedOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("seed: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("seed: nil options")
	}

	log := logging.New(st.cfg.Logging).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := newHub(st.cfg.Hub)

	var (
		rows []hub.Row
		err  error
	)
	if strings.TrimSpace(opts.metadataPath) != "" {
		rows, err = readLocalMetadata(opts.metadataPath)
	} else {
		rows, err = client.Rows(ctx)
	}
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(rows) > opts.limit {
		rows = rows[:opts.limit]
	}

	db, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var sink attachmentSink
	if !opts.skipFiles && strings.TrimSpace(st.cfg.ObjectStore.Bucket) != "" {
		oc, err := newObjstore(st.cfg.ObjectStore)
		if err != nil {
			return err
		}
		if oc != nil {
			sink = oc
		}
	}

	split := strings.TrimSpace(st.cfg.Hub.Split)
	if split == "" {
		split = gaia.DefaultSplit
	}

	imported, mirrored := 0, 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		q := questionFromRow(row, split)
		if q.TaskID == "" {
			continue
		}

		if sink != nil && q.FileName != "" {
			url, err := mirrorAttachment(ctx, client, sink, q.FileName)
			if err != nil {
				// Keep seeding; the question stays usable without its file.
				log.Warn("mirror attachment",
					zap.String("task_id", q.TaskID),
					zap.String("file", q.FileName),
					zap.Error(err))
			} else {
				q.FileURL = url
				mirrored++
			}
		}

		if err := db.UpsertQuestion(ctx, q); err != nil {
			return fmt.Errorf("seed: upsert %s: %w", q.TaskID, err)
		}
		imported++
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions (%d attachments mirrored)\n", imported, mirrored)
	return nil
}

func questionFromRow(row hub.Row, split string) *gaia.Question {
	return &gaia.Question{
		TaskID:         strings.TrimSpace(row.TaskID),
		Question:       row.Question,
		Level:          row.Level,
		FinalAnswer:    row.FinalAnswer,
		FileName:       row.FileName,
		FileExtension:  gaia.ExtensionOf(row.FileName),
		AnnotatorSteps: row.AnnotatorSteps,
		Split:          split,
	}
}

// mirrorAttachment copies one dataset file into object storage unless it is
// already there, and returns its object URL.
func mirrorAttachment(ctx context.Context, src attachmentSource, sink attachmentSink, name string) (string, error) {
	exists, err := sink.Exists(ctx, name)
	if err == nil && exists {
		return sink.ObjectURL(sink.ObjectKey(name)), nil
	}

	body, size, err := src.DownloadFile(ctx, name)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	return sink.Upload(ctx, name, body, size)
}
