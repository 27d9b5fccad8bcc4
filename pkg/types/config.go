// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that call external APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with provider requests
	// (e.g. "litreview/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search provider adapters and the
// tool executor that paces them.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the default per-call limit when the model omits one
	// (default 10). Adapters clamp every limit to 20.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// SearchDelay is the pause after the status event and before each
	// provider search (default 800ms).
	SearchDelay time.Duration `json:"search_delay" yaml:"search_delay"`

	// DetailDelay is the pause before each detail lookup (default 500ms).
	DetailDelay time.Duration `json:"detail_delay" yaml:"detail_delay"`

	// RetryMax is the number of retries on HTTP 429 (default 3).
	RetryMax int `json:"retry_max" yaml:"retry_max"`

	// RetryBaseDelay is the first backoff interval on HTTP 429 (default 2s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// AIConfig holds settings for the LLM client.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the LLM API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the SDK-level retry count for failed API calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SearchMaxTokens caps each search-phase completion (default 4096).
	SearchMaxTokens int `json:"search_max_tokens" yaml:"search_max_tokens"`

	// SynthesisMaxTokens caps the streamed review (default 8192).
	SynthesisMaxTokens int `json:"synthesis_max_tokens" yaml:"synthesis_max_tokens"`
}

// AgentConfig holds the search-phase loop bounds.
type AgentConfig struct {
	// MaxIterations is the hard ceiling on reasoning iterations (default 8).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// MinIterationsBeforeStop is the iteration from which a turn without
	// tool calls ends the search phase (default 3).
	MinIterationsBeforeStop int `json:"min_iterations_before_stop" yaml:"min_iterations_before_stop"`

	// TargetPapers is the paper count the model is told is enough (default 5).
	TargetPapers int `json:"target_papers" yaml:"target_papers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxUploadBytes caps annotate uploads (default 10 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// StoreConfig holds settings for review persistence.
type StoreConfig struct {
	// Dir contains reviews.db (default "data").
	Dir string `json:"dir" yaml:"dir"`

	// Disabled turns persistence off entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// AnnotateConfig holds settings for citation annotation.
type AnnotateConfig struct {
	// MaxDocumentChars truncates document text before prompting (default 60000).
	MaxDocumentChars int `json:"max_document_chars" yaml:"max_document_chars"`

	// MaxTokens caps the annotation completion (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Converter selects PDF/DOCX conversion: "markitdown" or "none".
	Converter string `json:"converter" yaml:"converter"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error, disable (default info).
	Level string `json:"level" yaml:"level"`
}

// AppConfig groups every component configuration.
type AppConfig struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Agent    AgentConfig    `json:"agent" yaml:"agent"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Annotate AnnotateConfig `json:"annotate" yaml:"annotate"`
	Log      LogConfig      `json:"log" yaml:"log"`
}
