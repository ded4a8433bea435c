// Package server exposes the tender analysis engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/audit"
	"github.com/tenderlens/tenderlens/internal/config"
	"github.com/tenderlens/tenderlens/internal/telemetry"
)

const Version = "1.0.0"

// Server wraps the HTTP components for TenderLens.
type Server struct {
	mux     *http.ServeMux
	cfg     *config.Config
	engine  analyzer.Engine
	audit   *audit.Emitter
	tel     *telemetry.Provider
	apiKeys map[string]struct{}
}

// New creates a server with all routes registered.
func New(cfg *config.Config, engine analyzer.Engine, emitter *audit.Emitter, tel *telemetry.Provider) *Server {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	s := &Server{
		mux:     http.NewServeMux(),
		cfg:     cfg,
		engine:  engine,
		audit:   emitter,
		tel:     tel,
		apiKeys: keys,
	}

	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/analyze_tender", s.handleAnalyzeTender)
	s.mux.HandleFunc("/analyze_batch", s.handleAnalyzeBatch)

	return s
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on the configured address.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: time.Duration(s.cfg.Server.ReadHeaderTimeoutS) * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutS) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutS) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Server.IdleTimeoutS) * time.Second,
	}
	log.Printf("TenderLens API running on %s (backend=%s)", s.cfg.Server.Addr, s.engine.Name())
	return srv.ListenAndServe()
}

// --- Request/response types for the HTTP layer ---

type tenderAnalysisRequest struct {
	TenderText string `json:"tender_text"`
}

type batchAnalysisRequest struct {
	Tenders []tenderAnalysisRequest `json:"tenders"`
}

type flaggedPhraseResponse struct {
	Phrase   string `json:"phrase"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type tenderAnalysisResponse struct {
	BarrierScore           int                     `json:"barrier_score"`
	FlaggedPhrases         []string                `json:"flagged_phrases"`
	FlaggedPhrasesDetailed []flaggedPhraseResponse `json:"flagged_phrases_detailed"`
	Recommendation         string                  `json:"recommendation"`
}

type batchAnalysisResult struct {
	Status   string                  `json:"status"`
	Analysis *tenderAnalysisResponse `json:"analysis,omitempty"`
}

type batchAnalysisResponse struct {
	Results []batchAnalysisResult `json:"results"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// --- Handlers ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Procurement Barrier Analysis API",
		"status":  "running",
		"version": Version,
		"endpoints": map[string]string{
			"POST /analyze_tender": "Analyze a single tender document for barriers",
			"POST /analyze_batch":  "Analyze multiple tender documents at once",
			"GET /health":          "Health check endpoint",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAnalyzeTender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorize(w, r) {
		return
	}

	var reqBody tenderAnalysisRequest
	if !s.decodeBody(w, r, &reqBody) {
		return
	}

	resp, status, detail := s.analyzeOne(r, reqBody.TenderText)
	if resp == nil {
		writeError(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorize(w, r) {
		return
	}

	var reqBody batchAnalysisRequest
	if !s.decodeBody(w, r, &reqBody) {
		return
	}
	if len(reqBody.Tenders) == 0 {
		writeError(w, http.StatusBadRequest, "tenders list cannot be empty")
		return
	}

	// Failed documents are omitted from the results rather than reported.
	results := make([]batchAnalysisResult, 0, len(reqBody.Tenders))
	for _, tender := range reqBody.Tenders {
		resp, _, _ := s.analyzeOne(r, tender.TenderText)
		if resp == nil {
			continue
		}
		results = append(results, batchAnalysisResult{
			Status:   "success",
			Analysis: resp,
		})
	}

	writeJSON(w, http.StatusOK, batchAnalysisResponse{Results: results})
}

// analyzeOne runs one document through the engine, recording audit and
// telemetry. A nil response means the caller should report status/detail.
func (s *Server) analyzeOne(r *http.Request, text string) (*tenderAnalysisResponse, int, string) {
	start := time.Now()

	ctx, span := s.tel.Tracer().Start(r.Context(), "analyze_tender")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		s.record(r, "rejected", nil, len(text), start, span)
		return nil, http.StatusBadRequest, "tender_text cannot be empty"
	}

	res, err := s.engine.Analyze(ctx, text)
	if err != nil {
		log.Printf("analyze error (backend=%s): %v", s.engine.Name(), err)
		s.record(r, "error", nil, len(text), start, span)
		return nil, http.StatusInternalServerError, fmt.Sprintf("Error analyzing tender: %v", err)
	}

	s.record(r, "success", res, len(text), start, span)

	phrases := make([]string, 0, len(res.Phrases))
	detailed := make([]flaggedPhraseResponse, 0, len(res.Phrases))
	for _, p := range res.Phrases {
		phrases = append(phrases, p.Phrase)
		detailed = append(detailed, flaggedPhraseResponse{
			Phrase:   p.Phrase,
			Category: p.Category,
			Score:    p.Score,
		})
	}

	return &tenderAnalysisResponse{
		BarrierScore:           res.Score,
		FlaggedPhrases:         phrases,
		FlaggedPhrasesDetailed: detailed,
		Recommendation:         res.Recommendation,
	}, http.StatusOK, ""
}

func (s *Server) record(r *http.Request, outcome string, res *analyzer.Result, docBytes int, start time.Time, span trace.Span) {
	latency := time.Since(start)

	score, findings := -1, 0
	if res != nil {
		score = res.Score
		findings = len(res.Phrases)
	}

	span.SetAttributes(telemetry.SafeAttributes(map[string]interface{}{
		"tenderlens.backend":   s.engine.Name(),
		"tenderlens.outcome":   outcome,
		"tenderlens.doc_bytes": docBytes,
		"tenderlens.score":     score,
		"tenderlens.findings":  findings,
	})...)

	s.tel.RecordRequestMetrics(r.URL.Path, s.engine.Name(), outcome, float64(latency)/float64(time.Millisecond), score, findings)

	var outc audit.Outcome
	switch outcome {
	case "success":
		outc = audit.OutcomeSuccess
	case "rejected":
		outc = audit.OutcomeRejected
	default:
		outc = audit.OutcomeError
	}
	s.audit.Emit(r.Context(), audit.BuildEvent(audit.BuildParams{
		Backend:  s.engine.Name(),
		Outcome:  outc,
		DocBytes: docBytes,
		Result:   res,
		Latency:  latency,
	}))
}

// authorize enforces bearer auth when api_keys are configured.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if len(s.apiKeys) == 0 {
		return true
	}
	key, ok := parseBearerToken(r.Header.Get("Authorization"))
	if !ok || key == "" {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return false
	}
	if _, ok := s.apiKeys[key]; !ok {
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return false
	}
	return true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// parseBearerToken extracts the token from an Authorization: Bearer header.
func parseBearerToken(h string) (string, bool) {
	if h == "" {
		return "", false
	}
	parts := strings.Fields(h)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
