package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"latinize/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set [llm] api_key (or export LATINIZE_API_KEY) before running latinize.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			configKind, configMsg := statusOK, ctx.configPath
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				configKind, configMsg = statusInfo, "not found; defaults used"
			}
			keyKind, keyMsg := statusOK, "set"
			if cfg.LLM.APIKey == "" {
				keyKind, keyMsg = statusWarn, "missing; requests will be sent without authorization"
			}
			endpointKind, endpointMsg := statusOK, cfg.LLM.BaseURL
			if cfg.LLM.BaseURL == "" {
				endpointKind, endpointMsg = statusWarn, "empty; latinization requests will fail"
			}
			cacheKind, cacheMsg := statusOK, cfg.Cache.Path
			if _, statErr := os.Stat(filepath.Dir(cfg.Cache.Path)); statErr != nil {
				cacheKind, cacheMsg = statusInfo, cfg.Cache.Path+" (directory created on first save)"
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", configKind, configMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("API key", keyKind, keyMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Endpoint", endpointKind, endpointMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Model", statusInfo, cfg.LLM.Model, colorize))
			fmt.Fprintln(out, renderStatusLine("Cache", cacheKind, cacheMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Log file", statusInfo, yesNo(cfg.Logging.File != ""), colorize))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
