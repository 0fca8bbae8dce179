package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"latinize/internal/config"
	"latinize/internal/latincache"
	"latinize/internal/logging"
	"latinize/internal/services/llm"
	"latinize/internal/tagsource"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	logger      *slog.Logger
	logCloser   io.Closer
	store       *latincache.Store
	storeClosed bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loggerFor builds the process logger on first use. Log lines go to the
// command's stderr so stdout stays parseable.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Writer:     cmd.ErrOrStderr(),
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger
	c.logCloser = closer
	return logger, nil
}

// openStore returns the loaded cache store, opening it on first use.
func (c *commandContext) openStore(cmd *cobra.Command) (*latincache.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	store := latincache.New(latincache.Options{
		Path:         cfg.Cache.Path,
		FallbackPath: cfg.Cache.FallbackPath,
		Logger:       logger,
	})
	store.Open()
	c.store = store
	return store, nil
}

func (c *commandContext) newClient(cmd *cobra.Command) (*llm.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		SystemPrompt:      cfg.LLM.SystemPrompt,
		Prompt:            cfg.LLM.Prompt,
		TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}, llm.WithLogger(logger)), nil
}

func (c *commandContext) newSource(cmd *cobra.Command) (*tagsource.Source, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	return tagsource.New(cfg.HasExtension, logger), nil
}

// close flushes the store and releases the log file.
func (c *commandContext) close() error {
	var errs []error
	if c.store != nil && !c.storeClosed {
		c.storeClosed = true
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		c.logCloser = nil
	}
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
