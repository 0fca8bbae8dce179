package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree. The returned context owns the store
// and log file; execute releases them once the command finishes.
func newRootCommand() (*cobra.Command, *commandContext) {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "latinize",
		Short:         "Cache latinized track titles and album names",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newTestCommand(ctx))
	rootCmd.AddCommand(newFieldsCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd, ctx
}

// execute runs the command tree and then closes cc, including when the
// command failed or was cancelled.
func execute(ctx context.Context, root *cobra.Command, cc *commandContext) error {
	err := root.ExecuteContext(ctx)
	if closeErr := cc.close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}
