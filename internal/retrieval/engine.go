package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/barrier"
	"github.com/tenderlens/tenderlens/internal/provider"
)

const systemPrompt = `You are an analyst scoring UK procurement tender documents for barriers that ` +
	`disadvantage small and medium enterprises (SMEs). Score the document from 0 to 100 and list the ` +
	`offending phrases. Use these categories: Trading History, Insurance, Financial Thresholds, ` +
	`Time Constraints, Certifications, Geographic Requirements, Infrastructure, Experience Requirements, ` +
	`Resource Requirements, Penalty Clauses, Proprietary Specifications. ` +
	`Respond with a single JSON object only, shaped exactly as: ` +
	`{"barrier_score": <int 0-100>, "flagged_phrases": [{"phrase": "...", "category": "...", "score": <int>}], ` +
	`"recommendation": "..."}`

// Engine delegates scoring to an upstream model call grounded on the most
// similar reference tenders. It implements analyzer.Engine.
type Engine struct {
	kb    *KnowledgeBase
	prov  provider.Provider
	model string
	topK  int
}

// New builds a retrieval engine. topK <= 0 defaults to 3.
func New(kb *KnowledgeBase, prov provider.Provider, model string, topK int) *Engine {
	if topK <= 0 {
		topK = 3
	}
	return &Engine{kb: kb, prov: prov, model: model, topK: topK}
}

func (e *Engine) Name() string { return "retrieval" }

// Analyze retrieves references, calls the model, and parses the result back
// into the shared engine contract. Unlike the rule engine it can fail: on an
// upstream error or an unparseable response the caller decides whether to
// surface or omit the document.
func (e *Engine) Analyze(ctx context.Context, text string) (*analyzer.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &analyzer.Result{Score: 0, Recommendation: barrier.Recommend(0)}, nil
	}

	refs := e.kb.TopK(text, e.topK)

	resp, err := e.prov.ChatCompletion(ctx, &provider.Request{
		Model: e.model,
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(refs, text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval analysis: %w", err)
	}

	return parseResult(resp.Content)
}

func buildUserPrompt(refs []ScoredDocument, text string) string {
	var b strings.Builder

	if len(refs) > 0 {
		b.WriteString("Reference tenders with curated barrier scores:\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "--- Reference %d (barrier_score=%d) ---\n%s\n", i+1, ref.BarrierScore, ref.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Tender document to score:\n")
	b.WriteString(text)
	return b.String()
}

// llmResult mirrors the JSON object the model is instructed to return.
type llmResult struct {
	BarrierScore   int                     `json:"barrier_score"`
	FlaggedPhrases []barrier.FlaggedPhrase `json:"flagged_phrases"`
	Recommendation string                  `json:"recommendation"`
}

// parseResult extracts the JSON object from the model output, tolerating
// surrounding prose and code fences, and clamps it to the engine contract.
func parseResult(content string) (*analyzer.Result, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var parsed llmResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis JSON: %w", err)
	}

	score := parsed.BarrierScore
	if score < 0 {
		score = 0
	}
	if score > barrier.MaxScore {
		score = barrier.MaxScore
	}

	phrases := make([]barrier.FlaggedPhrase, 0, len(parsed.FlaggedPhrases))
	for _, fp := range parsed.FlaggedPhrases {
		if strings.TrimSpace(fp.Phrase) == "" {
			continue
		}
		if fp.Score < 0 {
			fp.Score = 0
		}
		phrases = append(phrases, fp)
	}

	recommendation := strings.TrimSpace(parsed.Recommendation)
	if recommendation == "" {
		recommendation = barrier.Recommend(score)
	}

	return &analyzer.Result{
		Phrases:        phrases,
		Score:          score,
		Recommendation: recommendation,
	}, nil
}

// extractJSON returns the outermost JSON object in the content.
func extractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return s[start : end+1], nil
}
