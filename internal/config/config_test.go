package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendRules, cfg.Analyzer.Backend)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	require.Len(t, cfg.Audit.Sinks, 1)
	assert.Equal(t, "stdout", cfg.Audit.Sinks[0].Type)
	require.NoError(t, Validate(cfg))
}

func TestLoadAppliesDefaultsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenderlens.yaml")
	content := `server:
  addr: ":9090"
analyzer:
  backend: retrieval
retrieval:
  model: gpt-4o
providers:
  openai:
    type: openai
    api_key_env: OPENAI_API_KEY
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendRetrieval, cfg.Analyzer.Backend)
	assert.Equal(t, "gpt-4o", cfg.Retrieval.Model)
	// Single provider becomes the default.
	assert.Equal(t, "openai", cfg.DefaultProvider)
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Analyzer.Backend = "mystery"

	require.Error(t, Validate(cfg))
}

func TestValidateRetrievalRequiresProvider(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Analyzer.Backend = BackendRetrieval

	require.Error(t, Validate(cfg))

	cfg.Providers = map[string]ProviderConfig{
		"openai": {Type: "openai", APIKeyEnv: "OPENAI_API_KEY"},
	}
	cfg.DefaultProvider = "openai"
	require.NoError(t, Validate(cfg))
}

func TestValidateProviderBaseURL(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Providers = map[string]ProviderConfig{
		"openai": {Type: "openai", APIKeyEnv: "OPENAI_API_KEY", BaseURL: "ftp://example.com"},
	}

	require.Error(t, Validate(cfg))
}

func TestValidateAuditSinks(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	cfg.Audit.Sinks = []AuditSinkConfig{{Type: "file_jsonl"}}
	require.Error(t, Validate(cfg))

	cfg.Audit.Sinks = []AuditSinkConfig{{Type: "webhook", URL: "not a url"}}
	require.Error(t, Validate(cfg))

	cfg.Audit.Sinks = []AuditSinkConfig{
		{Type: "stdout"},
		{Type: "file_jsonl", Path: "/tmp/audit.jsonl"},
		{Type: "webhook", URL: "https://example.com/hook"},
	}
	require.NoError(t, Validate(cfg))
}

func TestValidateTelemetry(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Telemetry.Enabled = true

	require.Error(t, Validate(cfg), "enabled telemetry needs an endpoint")

	cfg.Telemetry.Endpoint = "localhost:4317"
	cfg.Telemetry.Protocol = "carrier-pigeon"
	require.Error(t, Validate(cfg))

	cfg.Telemetry.Protocol = "grpc"
	require.NoError(t, Validate(cfg))
}
