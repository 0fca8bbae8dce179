package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. A missing API key is not an
// error here: cache maintenance commands run without one, and the request
// client reports it when a fetch is attempted.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if err := c.validateBaseURL(); err != nil {
		return err
	}
	if !strings.Contains(c.LLM.Prompt, "{title}") || !strings.Contains(c.LLM.Prompt, "{album}") {
		return errors.New("llm.prompt must contain both {title} and {album}")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must be zero or positive")
	}
	return nil
}

// validateBaseURL accepts an empty URL. Cache commands never contact the
// endpoint, and the request client reports the empty URL as a configuration
// error when a fetch is attempted.
func (c *Config) validateBaseURL() error {
	if c.LLM.BaseURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.LLM.BaseURL)
	if err != nil {
		return fmt.Errorf("llm.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("llm.base_url must use http or https, got %q", c.LLM.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("llm.base_url must include a host, got %q", c.LLM.BaseURL)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Path == "" {
		return errors.New("cache.path must be set")
	}
	if c.Cache.FallbackPath == c.Cache.Path {
		return errors.New("cache.fallback_path must differ from cache.path")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
