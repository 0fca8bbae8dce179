package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"latinize/internal/batch"
	"latinize/internal/logging"
	"latinize/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Latinize tracks that are not cached yet",
		Long: "Read tags from the given audio files and directories and request latinized\n" +
			"names for every track missing from the cache. Cached tracks are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(cmd)
			if err != nil {
				return err
			}
			return runBatch(cmd, ctx, batch.OpLatinize, args, client, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the batch summary as JSON")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var titleOnly, albumOnly, jsonOutput bool
	cmd := &cobra.Command{
		Use:   "clear <path>...",
		Short: "Remove cached values for tracks",
		Long: "Remove cached entries for the given audio files and directories. By default\n" +
			"both the track entry and its album entry are removed; --title or --album\n" +
			"blanks only that field.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := batch.OpClearAll
			switch {
			case titleOnly:
				op = batch.OpClearTitle
			case albumOnly:
				op = batch.OpClearAlbum
			}
			return runBatch(cmd, ctx, op, args, nil, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&titleOnly, "title", false, "Clear only cached titles")
	cmd.Flags().BoolVar(&albumOnly, "album", false, "Clear only cached albums")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the batch summary as JSON")
	cmd.MarkFlagsMutuallyExclusive("title", "album")
	return cmd
}

type batchSummary struct {
	JobID     string   `json:"job_id"`
	Operation string   `json:"operation"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Changed   int      `json:"changed"`
	Failed    int      `json:"failed"`
	Cancelled bool     `json:"cancelled"`
	Items     []string `json:"changed_items,omitempty"`
}

func runBatch(cmd *cobra.Command, ctx *commandContext, op batch.Operation, paths []string, latinizer batch.Latinizer, jsonOutput bool) error {
	source, err := ctx.newSource(cmd)
	if err != nil {
		return err
	}
	tracks, err := source.Collect(cmd.Context(), paths)
	if err != nil {
		return err
	}
	store, err := ctx.openStore(cmd)
	if err != nil {
		return err
	}
	logger, err := ctx.loggerFor(cmd)
	if err != nil {
		return err
	}

	processor := batch.NewProcessor(store, latinizer, logger)
	worker := batch.NewWorker(processor, logger, batch.WithOnComplete(func(res batch.Result, err error) {
		logger.Debug("batch job complete",
			logging.String(logging.FieldJobID, res.JobID),
			logging.Int("changed", len(res.Changed)),
			logging.Bool("cancelled", services.IsCancelled(err)))
	}))
	if err := worker.Start(cmd.Context()); err != nil {
		return err
	}
	defer worker.Stop()

	job, err := worker.Submit(cmd.Context(), op, tracks)
	if err != nil {
		return err
	}
	display := newProgressDisplay(cmd.ErrOrStderr(), operationLabel(op), len(tracks))
	result, runErr := display.follow(job)
	if runErr != nil && !services.IsCancelled(runErr) {
		return runErr
	}

	cancelled := runErr != nil
	if jsonOutput {
		summary := batchSummary{
			JobID:     result.JobID,
			Operation: string(result.Operation),
			Total:     result.Total,
			Processed: result.Processed,
			Changed:   len(result.Changed),
			Failed:    result.Failed,
			Cancelled: cancelled,
		}
		for _, track := range result.Changed {
			summary.Items = append(summary.Items, track.Location)
		}
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
		return runErr
	}

	out := cmd.OutOrStdout()
	if cancelled {
		fmt.Fprintf(out, "Cancelled after %d of %d items\n", result.Processed, result.Total)
	}
	fmt.Fprintf(out, "%s %d of %d items", operationVerb(op), len(result.Changed), result.Total)
	if result.Failed > 0 {
		fmt.Fprintf(out, " (%d failed)", result.Failed)
	}
	fmt.Fprintln(out)
	return runErr
}

func operationLabel(op batch.Operation) string {
	switch op {
	case batch.OpLatinize:
		return "latinizing"
	case batch.OpClearTitle:
		return "clearing titles"
	case batch.OpClearAlbum:
		return "clearing albums"
	default:
		return "clearing"
	}
}

func operationVerb(op batch.Operation) string {
	if op == batch.OpLatinize {
		return "Latinized"
	}
	return "Cleared"
}
