// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles types.AppConfig from viper (config file,
// LITREVIEW_* environment variables, flags) and the .secrets/ directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kataras/golog"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// LITREVIEW_SERVER_ADDR for server.addr.
	EnvPrefix = "LITREVIEW"

	// SecretsDir is the default secrets directory.
	SecretsDir = ".secrets"

	secretAnthropicKey = "anthropic-api-key"
	secretSemanticKey  = "semantic-scholar-api-key"
)

var defaults = map[string]any{
	"http.timeout":    30 * time.Second,
	"http.user_agent": "litreview/0.1",

	"search.semantic_scholar_api_key": "",
	"search.max_results":              search.DefaultLimit,
	"search.search_delay":             800 * time.Millisecond,
	"search.detail_delay":             500 * time.Millisecond,
	"search.retry_max":                3,
	"search.retry_base_delay":         2 * time.Second,

	"ai.model":                "claude-sonnet-4-5",
	"ai.api_key":              "",
	"ai.base_url":             "",
	"ai.max_retries":          2,
	"ai.search_max_tokens":    4096,
	"ai.synthesis_max_tokens": 8192,

	"agent.max_iterations":             8,
	"agent.min_iterations_before_stop": 3,
	"agent.target_papers":              5,

	"server.addr":             ":8080",
	"server.shutdown_timeout": 10 * time.Second,
	"server.max_upload_bytes": int64(10 << 20),

	"store.dir":      "data",
	"store.disabled": false,

	"annotate.max_document_chars": 60000,
	"annotate.max_tokens":         4096,
	"annotate.converter":          "markitdown",

	"log.level": "info",
}

// Setup registers defaults and environment bindings on v and points it at
// cfgFile, or at litreview.yaml in the working directory and
// ~/.config/litreview/. A missing config file is not an error.
func Setup(v *viper.Viper, cfgFile string) error {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("litreview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads every setting from v. Secrets fill API keys that config and
// environment leave empty.
func Load(v *viper.Viper, secrets map[string]string) (types.AppConfig, error) {
	for k, val := range defaults {
		if !v.IsSet(k) {
			v.SetDefault(k, val)
		}
	}

	var cfg types.AppConfig

	cfg.HTTP = types.HTTPConfig{
		Timeout:   v.GetDuration("http.timeout"),
		UserAgent: v.GetString("http.user_agent"),
	}

	cfg.Search = types.SearchConfig{
		HTTPConfig:            cfg.HTTP,
		MaxResults:            search.ClampLimit(v.GetInt("search.max_results")),
		SemanticScholarAPIKey: firstNonEmpty(v.GetString("search.semantic_scholar_api_key"), secrets[secretSemanticKey]),
		SearchDelay:           v.GetDuration("search.search_delay"),
		DetailDelay:           v.GetDuration("search.detail_delay"),
		RetryMax:              v.GetInt("search.retry_max"),
		RetryBaseDelay:        v.GetDuration("search.retry_base_delay"),
	}

	cfg.AI = types.AIConfig{
		Model:              v.GetString("ai.model"),
		APIKey:             firstNonEmpty(v.GetString("ai.api_key"), secrets[secretAnthropicKey]),
		BaseURL:            v.GetString("ai.base_url"),
		MaxRetries:         v.GetInt("ai.max_retries"),
		SearchMaxTokens:    v.GetInt("ai.search_max_tokens"),
		SynthesisMaxTokens: v.GetInt("ai.synthesis_max_tokens"),
	}

	cfg.Agent = types.AgentConfig{
		MaxIterations:           v.GetInt("agent.max_iterations"),
		MinIterationsBeforeStop: v.GetInt("agent.min_iterations_before_stop"),
		TargetPapers:            v.GetInt("agent.target_papers"),
	}

	cfg.Server = types.ServerConfig{
		Addr:            v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		MaxUploadBytes:  v.GetInt64("server.max_upload_bytes"),
	}

	cfg.Store = types.StoreConfig{
		Dir:      v.GetString("store.dir"),
		Disabled: v.GetBool("store.disabled"),
	}

	cfg.Annotate = types.AnnotateConfig{
		MaxDocumentChars: v.GetInt("annotate.max_document_chars"),
		MaxTokens:        v.GetInt("annotate.max_tokens"),
		Converter:        v.GetString("annotate.converter"),
	}

	cfg.Log = types.LogConfig{Level: strings.ToLower(v.GetString("log.level"))}

	if err := validate(cfg); err != nil {
		return types.AppConfig{}, err
	}
	return cfg, nil
}

func validate(cfg types.AppConfig) error {
	var errs []error
	if cfg.Agent.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("agent.max_iterations must be at least 1, got %d", cfg.Agent.MaxIterations))
	}
	if cfg.Agent.MinIterationsBeforeStop < 1 {
		errs = append(errs, fmt.Errorf("agent.min_iterations_before_stop must be at least 1, got %d", cfg.Agent.MinIterationsBeforeStop))
	}
	if cfg.Agent.TargetPapers < 1 {
		errs = append(errs, fmt.Errorf("agent.target_papers must be at least 1, got %d", cfg.Agent.TargetPapers))
	}
	if strings.TrimSpace(cfg.AI.Model) == "" {
		errs = append(errs, errors.New("ai.model is required"))
	}
	if cfg.Search.SearchDelay < 0 || cfg.Search.DetailDelay < 0 {
		errs = append(errs, errors.New("search delays must not be negative"))
	}
	switch cfg.Annotate.Converter {
	case "markitdown", "none":
	default:
		errs = append(errs, fmt.Errorf("annotate.converter must be markitdown or none, got %q", cfg.Annotate.Converter))
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "disable":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn, error, or disable, got %q", cfg.Log.Level))
	}
	return errors.Join(errs...)
}

// NewLogger returns a logger at the configured level writing to stderr.
func NewLogger(cfg types.LogConfig) *golog.Logger {
	logger := golog.New()
	logger.SetOutput(os.Stderr)
	logger.SetPrefix("[litreview] ")
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	logger.SetLevel(level)
	return logger
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
