// Package audit records analysis outcomes for compliance review. Events
// carry scores and category names only; tender text never leaves the
// request path.
package audit

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/barrier"
	"github.com/tenderlens/tenderlens/internal/redact"
)

// Outcome is the result of an analysis from the service's perspective.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Event is the canonical audit payload.
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Backend        string    `json:"backend"`
	Outcome        Outcome   `json:"outcome"`
	DocBytes       int       `json:"doc_bytes"`
	Score          int       `json:"score"`
	Findings       int       `json:"findings"`
	Categories     []string  `json:"categories,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	LatencyMs      float64   `json:"latency_ms"`
}

// BuildParams collects inputs needed to assemble an audit event.
type BuildParams struct {
	Backend  string
	Outcome  Outcome
	DocBytes int
	Result   *analyzer.Result
	Latency  time.Duration
}

// BuildEvent creates an audit event for one analyzed document.
func BuildEvent(params BuildParams) *Event {
	ev := &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Backend:   params.Backend,
		Outcome:   params.Outcome,
		DocBytes:  params.DocBytes,
		LatencyMs: float64(params.Latency) / float64(time.Millisecond),
	}
	if params.Result != nil {
		ev.Score = params.Result.Score
		ev.Findings = len(params.Result.Phrases)
		ev.Recommendation = params.Result.Recommendation
		ev.Categories = collectCategories(params.Result.Phrases)
	}
	return ev
}

// LogEvent prints a redacted JSON representation of the audit event.
func LogEvent(ev *Event) {
	if ev == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		redact.Logf("audit: failed to marshal event: %v", err)
		return
	}
	redact.Logf("audit: %s", string(data))
}

func collectCategories(phrases []barrier.FlaggedPhrase) []string {
	seen := make(map[string]struct{})
	for _, p := range phrases {
		cat := strings.TrimSpace(p.Category)
		if cat == "" {
			continue
		}
		seen[cat] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
