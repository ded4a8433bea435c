// Package config loads and validates the TenderLens yaml configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds TenderLens configuration.
type Config struct {
	Server          ServerConfig              `yaml:"server"`
	Analyzer        AnalyzerConfig            `yaml:"analyzer"`
	Retrieval       RetrievalConfig           `yaml:"retrieval"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	DefaultProvider string                    `yaml:"default_provider"`
	Audit           AuditConfig               `yaml:"audit"`
	Telemetry       TelemetryConfig           `yaml:"telemetry"`
	APIKeys         []string                  `yaml:"api_keys"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
	MaxRequestBodyBytes int64  `yaml:"max_request_body_bytes"`
	ReadHeaderTimeoutS  int    `yaml:"read_header_timeout_seconds"`
	ReadTimeoutS        int    `yaml:"read_timeout_seconds"`
	WriteTimeoutS       int    `yaml:"write_timeout_seconds"`
	IdleTimeoutS        int    `yaml:"idle_timeout_seconds"`
}

// AnalyzerConfig selects the analysis backend.
type AnalyzerConfig struct {
	Backend string `yaml:"backend"` // rules | retrieval
}

// RetrievalConfig tunes the retrieval-augmented backend.
type RetrievalConfig struct {
	KnowledgeBase string `yaml:"knowledge_base"` // path to yaml reference set; empty = built-in seed
	TopK          int    `yaml:"top_k"`
	Model         string `yaml:"model"`
	Provider      string `yaml:"provider"` // provider name; empty = default_provider
}

type ProviderConfig struct {
	Type             string `yaml:"type"`        // e.g. "openai"
	BaseURL          string `yaml:"base_url"`    // e.g. "https://api.openai.com/v1"
	APIKeyEnv        string `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxResponseBytes int64  `yaml:"max_response_bytes"`
}

// AuditConfig configures where analysis audit events are delivered.
type AuditConfig struct {
	Sinks     []AuditSinkConfig `yaml:"sinks"`
	QueueSize int               `yaml:"queue_size"`
	Workers   int               `yaml:"workers"`
}

type AuditSinkConfig struct {
	Type    string            `yaml:"type"` // stdout | file_jsonl | webhook
	Path    string            `yaml:"path"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
}

// Load reads configuration from a yaml file. If the file doesn't exist, it
// returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

const (
	BackendRules     = "rules"
	BackendRetrieval = "retrieval"
)

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxRequestBodyBytes <= 0 {
		cfg.Server.MaxRequestBodyBytes = 1 << 20
	}
	if cfg.Server.ReadHeaderTimeoutS <= 0 {
		cfg.Server.ReadHeaderTimeoutS = 5
	}
	if cfg.Server.ReadTimeoutS <= 0 {
		cfg.Server.ReadTimeoutS = 30
	}
	if cfg.Server.WriteTimeoutS <= 0 {
		cfg.Server.WriteTimeoutS = 60
	}
	if cfg.Server.IdleTimeoutS <= 0 {
		cfg.Server.IdleTimeoutS = 120
	}

	if cfg.Analyzer.Backend == "" {
		cfg.Analyzer.Backend = BackendRules
	}

	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.Model == "" {
		cfg.Retrieval.Model = "gpt-4o-mini"
	}

	// If no default provider is set but there's exactly one provider, use it.
	if cfg.DefaultProvider == "" && len(cfg.Providers) == 1 {
		for name := range cfg.Providers {
			cfg.DefaultProvider = name
		}
	}

	if len(cfg.Audit.Sinks) == 0 {
		cfg.Audit.Sinks = []AuditSinkConfig{{Type: "stdout"}}
	}
	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}

	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "tenderlens"
	}
}
