package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// apiKeyEnvVars lists the environment variables consulted, in order, when
// llm.api_key is empty.
var apiKeyEnvVars = []string{"LATINIZE_API_KEY", "DEEPSEEK_API_KEY", "OPENROUTER_API_KEY"}

func (c *Config) normalize() error {
	c.normalizeLLM()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLibrary()
	return c.normalizeLogging()
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, name := range apiKeyEnvVars {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	// An explicit empty base_url stays empty; Default seeds it when the key is absent.
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel
	}
	if strings.TrimSpace(c.LLM.SystemPrompt) == "" {
		c.LLM.SystemPrompt = defaultSystemPrompt
	}
	if strings.TrimSpace(c.LLM.Prompt) == "" {
		c.LLM.Prompt = DefaultPrompt
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeCache() error {
	if value, ok := os.LookupEnv("LATINIZE_CACHE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Cache.Path = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = DefaultCachePath()
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if strings.TrimSpace(c.Cache.FallbackPath) == "" {
		c.Cache.FallbackPath = filepath.Join(os.TempDir(), appName, filepath.Base(c.Cache.Path))
	}
	if c.Cache.FallbackPath, err = expandPath(c.Cache.FallbackPath); err != nil {
		return fmt.Errorf("cache.fallback_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	if len(c.Library.Extensions) == 0 {
		c.Library.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	seen := make(map[string]struct{}, len(c.Library.Extensions))
	normalized := make([]string, 0, len(c.Library.Extensions))
	for _, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		normalized = append(normalized, ext)
	}
	c.Library.Extensions = normalized
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level

	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		c.Logging.File = ""
		return nil
	}
	var err error
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
