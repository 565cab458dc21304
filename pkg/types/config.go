package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for the article-fetch stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`
}

// ModelConfig holds settings for stages that call the Anthropic API.
type ModelConfig struct {
	// Model is the model identifier (e.g. "claude-haiku-4-5-20251001").
	Model string `json:"model" yaml:"model"`

	// APIKey is the Anthropic API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the model response length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// NotionConfig holds settings for the workspace-store write stage.
type NotionConfig struct {
	// APIKey is the Notion integration token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// SourcesDatabaseID identifies the Sources collection.
	SourcesDatabaseID string `json:"sources_database_id" yaml:"sources_database_id"`

	// EventsDatabaseID identifies the Events collection.
	EventsDatabaseID string `json:"events_database_id" yaml:"events_database_id"`
}

// LedgerConfig holds settings for the local run ledger.
type LedgerConfig struct {
	// Dir is the directory holding the ledger database (contains runs.db).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of listed runs (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
