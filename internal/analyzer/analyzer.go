// Package analyzer defines the analysis engine contract shared by the
// rule-based detector and the retrieval-backed alternative.
package analyzer

import (
	"context"

	"github.com/tenderlens/tenderlens/internal/barrier"
)

// Result is the outcome of analyzing one tender document.
type Result struct {
	Phrases        []barrier.FlaggedPhrase
	Score          int
	Recommendation string
}

// Engine analyzes tender text for SME barriers. Implementations must keep
// the output contract identical: score in [0, 100], the fixed category
// taxonomy, and the four recommendation bands.
type Engine interface {
	// Name identifies the backend in audit events and logs.
	Name() string

	// Analyze scores the document. Empty or all-whitespace text yields an
	// empty result with score 0.
	Analyze(ctx context.Context, text string) (*Result, error)
}

// rulesEngine is the deterministic pattern-catalogue backend.
type rulesEngine struct {
	detector *barrier.Detector
}

// NewRules returns the rule-based engine. Its Analyze never returns an
// error for any input text.
func NewRules() Engine {
	return &rulesEngine{detector: barrier.NewDetector()}
}

func (e *rulesEngine) Name() string { return "rules" }

func (e *rulesEngine) Analyze(_ context.Context, text string) (*Result, error) {
	phrases, score := e.detector.Analyze(text)
	return &Result{
		Phrases:        phrases,
		Score:          score,
		Recommendation: barrier.Recommend(score),
	}, nil
}
