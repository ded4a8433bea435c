package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	switch cfg.Analyzer.Backend {
	case BackendRules:
		// No further requirements.
	case BackendRetrieval:
		if err := validateRetrieval(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("analyzer.backend must be %q or %q, got %q", BackendRules, BackendRetrieval, cfg.Analyzer.Backend)
	}

	for name, p := range cfg.Providers {
		if err := validateProviderConfig(name, p); err != nil {
			return err
		}
	}

	if err := validateAuditConfig(cfg.Audit); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled {
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			return errors.New("telemetry.endpoint must be set when telemetry is enabled")
		}
		switch strings.ToLower(cfg.Telemetry.Protocol) {
		case "", "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", cfg.Telemetry.Protocol)
		}
	}

	return nil
}

func validateRetrieval(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return errors.New("retrieval backend requires at least one provider")
	}

	providerName := cfg.Retrieval.Provider
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	if strings.TrimSpace(providerName) == "" {
		return errors.New("retrieval backend requires retrieval.provider or default_provider")
	}
	if _, ok := cfg.Providers[providerName]; !ok {
		return fmt.Errorf("retrieval provider %q not found in providers", providerName)
	}
	return nil
}

func validateProviderConfig(name string, p ProviderConfig) error {
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("provider %q missing type", name)
	}
	if strings.EqualFold(p.Type, "openai") {
		if strings.TrimSpace(p.APIKeyEnv) == "" {
			return fmt.Errorf("provider %q missing api_key_env", name)
		}
	}
	if p.BaseURL != "" {
		u, err := url.Parse(p.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("provider %q has invalid base_url", name)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("provider %q base_url must be http or https", name)
		}
	}
	return nil
}

func validateAuditConfig(a AuditConfig) error {
	for i, s := range a.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "stdout":
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("audit sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}
