// Package retrieval implements the retrieval-augmented analysis backend: it
// selects reference tenders by lexical overlap and delegates scoring to an
// upstream text-generation call, honoring the same output contract as the
// rule engine.
package retrieval

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one reference tender in the knowledge base, annotated with the
// barrier score assigned during curation.
type Document struct {
	ID           string `yaml:"id"`
	Summary      string `yaml:"summary"`
	Text         string `yaml:"text"`
	BarrierScore int    `yaml:"barrier_score"`
}

// KnowledgeBase holds the reference documents used to ground the model call.
type KnowledgeBase struct {
	docs []Document
}

type knowledgeFile struct {
	Documents []Document `yaml:"documents"`
}

// LoadKnowledgeBase reads reference documents from a yaml file. An empty
// path selects the built-in seed set.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	if strings.TrimSpace(path) == "" {
		return &KnowledgeBase{docs: seedDocuments()}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var kf knowledgeFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(kf.Documents) == 0 {
		return nil, fmt.Errorf("knowledge base %s has no documents", path)
	}

	return &KnowledgeBase{docs: kf.Documents}, nil
}

// Len reports the number of reference documents.
func (kb *KnowledgeBase) Len() int { return len(kb.docs) }

// ScoredDocument pairs a reference document with its overlap against the
// query document.
type ScoredDocument struct {
	Document
	Overlap float64
}

// TopK returns the k reference documents most lexically similar to text,
// ranked by word-set overlap ratio. Ties keep knowledge-base order.
func (kb *KnowledgeBase) TopK(text string, k int) []ScoredDocument {
	if k <= 0 || len(kb.docs) == 0 {
		return nil
	}

	query := wordSet(text)

	scored := make([]ScoredDocument, 0, len(kb.docs))
	for _, doc := range kb.docs {
		scored = append(scored, ScoredDocument{
			Document: doc,
			Overlap:  overlapRatio(query, wordSet(doc.Text)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Overlap > scored[j].Overlap
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// wordSet lowercases the text and splits it into a set of alphanumeric words.
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// overlapRatio is |A∩B| / |A∪B| over the two word sets; 0 when both are empty.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// seedDocuments is a small built-in reference set so the backend works
// without a curated knowledge base on disk.
func seedDocuments() []Document {
	return []Document{
		{
			ID:      "seed-highbar-construction",
			Summary: "Construction framework with heavy financial and history requirements",
			Text: "Suppliers must demonstrate a minimum of 10 years uninterrupted trading history, " +
				"professional indemnity insurance of £25 million, and a minimum annual turnover of " +
				"£50 million for past 3 consecutive years. Performance bond of 15% required.",
			BarrierScore: 54,
		},
		{
			ID:      "seed-highbar-consultancy",
			Summary: "Consultancy tender requiring large dedicated teams and elite references",
			Text: "The consultancy must employ at least 50 full-time consultants, provide a minimum " +
				"team of 8 senior consultants, and the portfolio must demonstrate projects for " +
				"Fortune 500 clients. ISO 9001, ISO 27001, ISO 14001 certification required.",
			BarrierScore: 46,
		},
		{
			ID:      "seed-midbar-maintenance",
			Summary: "Maintenance contract with tight mobilization and penalties",
			Text: "Mobilization required within 48 hours of contract award. All work must be " +
				"completed within 6 weeks. Penalties for delays apply throughout the contract term.",
			BarrierScore: 28,
		},
		{
			ID:      "seed-lowbar-services",
			Summary: "SME-friendly services tender",
			Text: "We welcome bids from small and medium enterprises. Consortium bids and " +
				"subcontracting arrangements are acceptable. No minimum turnover is specified and " +
				"insurance requirements are proportionate to contract value.",
			BarrierScore: 0,
		},
	}
}
