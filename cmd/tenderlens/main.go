package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/audit"
	"github.com/tenderlens/tenderlens/internal/config"
	"github.com/tenderlens/tenderlens/internal/provider"
	"github.com/tenderlens/tenderlens/internal/retrieval"
	"github.com/tenderlens/tenderlens/internal/server"
	"github.com/tenderlens/tenderlens/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "tenderlens.yaml", "Path to TenderLens config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  server.Version,
	})
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer tel.Shutdown(ctx)

	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("failed to build analysis engine: %v", err)
	}

	sinks, err := buildAuditSinks(cfg)
	if err != nil {
		log.Fatalf("failed to build audit sinks: %v", err)
	}
	emitter := audit.NewEmitter(audit.EmitterConfig{
		QueueSize: cfg.Audit.QueueSize,
		Workers:   cfg.Audit.Workers,
	}, sinks)
	defer emitter.Close(ctx)

	srv := server.New(cfg, engine, emitter, tel)

	log.Printf("Starting TenderLens on %s...", cfg.Server.Addr)
	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildEngine(cfg *config.Config) (analyzer.Engine, error) {
	switch cfg.Analyzer.Backend {
	case config.BackendRules:
		return analyzer.NewRules(), nil
	case config.BackendRetrieval:
		kb, err := retrieval.LoadKnowledgeBase(cfg.Retrieval.KnowledgeBase)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		prov, err := buildProvider(cfg)
		if err != nil {
			return nil, err
		}
		return retrieval.New(kb, prov, cfg.Retrieval.Model, cfg.Retrieval.TopK), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Analyzer.Backend)
	}
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	name := cfg.Retrieval.Provider
	if name == "" {
		name = cfg.DefaultProvider
	}
	pcfg, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found in providers map", name)
	}

	switch pcfg.Type {
	case "openai":
		apiKey := os.Getenv(pcfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q: environment variable %s is empty", name, pcfg.APIKeyEnv)
		}
		timeout := time.Duration(pcfg.TimeoutSeconds) * time.Second
		return provider.NewOpenAI(pcfg.BaseURL, apiKey, timeout, pcfg.MaxResponseBytes), nil
	default:
		return nil, fmt.Errorf("provider %q: unsupported type %q", name, pcfg.Type)
	}
}

func buildAuditSinks(cfg *config.Config) ([]audit.Sink, error) {
	sinks := make([]audit.Sink, 0, len(cfg.Audit.Sinks))
	for _, sc := range cfg.Audit.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, audit.NewStdoutSink())
		case "file_jsonl":
			sink, err := audit.NewFileSink(sc.Path)
			if err != nil {
				return nil, fmt.Errorf("file sink %q: %w", sc.Path, err)
			}
			sinks = append(sinks, sink)
		case "webhook":
			sink, err := audit.NewWebhookSink(sc.URL, sc.Headers, 0)
			if err != nil {
				return nil, fmt.Errorf("webhook sink %q: %w", sc.URL, err)
			}
			sinks = append(sinks, sink)
		default:
			return nil, fmt.Errorf("unsupported audit sink type %q", sc.Type)
		}
	}
	return sinks, nil
}
