package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/config"
	"github.com/tenderlens/tenderlens/internal/telemetry"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("testdata/does-not-exist.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Server.Addr = ":0"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, engine analyzer.Engine) *Server {
	t.Helper()

	if engine == nil {
		engine = analyzer.NewRules()
	}
	tel, err := telemetry.NewProvider(context.Background(), telemetry.Config{Enabled: false})
	if err != nil {
		t.Fatalf("telemetry provider: %v", err)
	}
	return New(cfg, engine, nil, tel)
}

func TestRootBanner(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "running" {
		t.Fatalf("expected status running, got %v", body["status"])
	}
}

func TestHealthOK(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthy") {
		t.Fatalf("expected healthy body, got %s", rr.Body.String())
	}
}

func TestAnalyzeTenderReturnsScoreAndRecommendation(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	payload := `{"tender_text":"The supplier must demonstrate a minimum of 10 years uninterrupted trading history."}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body tenderAnalysisResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.BarrierScore != 30 {
		t.Fatalf("expected barrier_score 30, got %d", body.BarrierScore)
	}
	if len(body.FlaggedPhrases) != 2 || len(body.FlaggedPhrasesDetailed) != 2 {
		t.Fatalf("expected two flagged phrases, got %v", body.FlaggedPhrases)
	}
	if body.FlaggedPhrasesDetailed[0].Category == "" {
		t.Fatalf("expected category on detailed phrase")
	}
	if body.Recommendation == "" {
		t.Fatalf("expected a recommendation")
	}
}

func TestAnalyzeTenderEmptyTextReturns400(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	payload := `{"tender_text":"   \n  "}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Detail != "tender_text cannot be empty" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestAnalyzeTenderInvalidJSONReturns400(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyzeTenderRejectsGet(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/analyze_tender", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRequestBodyLimitReturns413(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxRequestBodyBytes = 16

	srv := newTestServer(t, cfg, nil)

	payload := `{"tender_text":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.APIKeys = []string{"test-key"}

	srv := newTestServer(t, cfg, nil)

	payload := `{"tender_text":"ISO 9001 certification required."}`

	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer wrong-key")
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer test-key")
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid key, got %d", rr.Code)
	}

	// Health stays open for probes.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on health without key, got %d", rr.Code)
	}
}

func TestAnalyzeBatchEmptyListReturns400(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze_batch", strings.NewReader(`{"tenders":[]}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tenders list cannot be empty") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestAnalyzeBatchOmitsFailedDocuments(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	payload := `{"tenders":[
		{"tender_text":"Minimum of 10 years uninterrupted trading history required."},
		{"tender_text":"   "},
		{"tender_text":"No barriers here."}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_batch", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body batchAnalysisResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Results) != 2 {
		t.Fatalf("expected 2 results with the blank tender omitted, got %d", len(body.Results))
	}
	for _, res := range body.Results {
		if res.Status != "success" || res.Analysis == nil {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if body.Results[0].Analysis.BarrierScore == 0 {
		t.Fatalf("expected first tender to score above zero")
	}
	if body.Results[1].Analysis.BarrierScore != 0 {
		t.Fatalf("expected clean tender to score 0, got %d", body.Results[1].Analysis.BarrierScore)
	}
}

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }

func (failingEngine) Analyze(context.Context, string) (*analyzer.Result, error) {
	return nil, errors.New("backend unavailable")
}

func TestAnalyzeTenderEngineErrorReturns500(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), failingEngine{})

	payload := `{"tender_text":"Minimum of 10 years trading history required."}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_tender", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Error analyzing tender") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestAnalyzeBatchOmitsEngineFailures(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), failingEngine{})

	payload := `{"tenders":[{"tender_text":"some text"}]}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_batch", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body batchAnalysisResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Results) != 0 {
		t.Fatalf("expected empty results, got %d", len(body.Results))
	}
}
