package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	reindexuc "github.com/kailas-cloud/stylesearch/internal/usecase/reindex"
)

func newReindexCmd(env *string) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Index every style in the catalog into the vector index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env, true)
			if err != nil {
				return err
			}
			defer a.close()

			job := a.reindex
			if concurrency > 0 {
				job = job.WithConcurrency(concurrency)
			}
			return runReindex(cmd.Context(), cmd.OutOrStdout(), a.catalog, job)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Styles indexed at once (default from reindex.concurrency)")
	return cmd
}

type styleCounter interface {
	Count(ctx context.Context) (int, error)
}

type reindexJob interface {
	Run(ctx context.Context, progress reindexuc.ProgressFunc) (reindexuc.Summary, error)
}

// runReindex prints per-style progress. Individual failures do not fail the command.
func runReindex(ctx context.Context, out io.Writer, styles styleCounter, job reindexJob) error {
	total, err := styles.Count(ctx)
	if err != nil {
		return fmt.Errorf("count styles: %w", err)
	}
	fmt.Fprintf(out, "Indexing %d styles...\n", total)

	sum, err := job.Run(ctx, func(i, n int, st style.Style, res domidx.Result) {
		fmt.Fprintf(out, "Processing style %d/%d: %s\n", i, n, st.Title())
		if res.OK() {
			fmt.Fprintf(out, "Indexed: %s\n", st.Title())
			return
		}
		fmt.Fprintf(out, "Failed to index: %s\n", st.Title())
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Indexing complete! %d/%d styles indexed successfully.\n", sum.Success, sum.Total)
	return nil
}
