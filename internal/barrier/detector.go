// Package barrier implements the rule-based detection of SME barrier phrases
// in tender documents: a fixed catalogue of scored regex rules applied to
// whitespace-normalized text, with duplicate suppression and a capped
// aggregate score.
package barrier

import (
	"regexp"
	"strings"
)

// MaxScore is the hard ceiling on the aggregate barrier score.
const MaxScore = 100

// FlaggedPhrase is one detected barrier phrase.
type FlaggedPhrase struct {
	Phrase   string `json:"phrase"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// Detector scans tender text against the pattern catalogue. The catalogue is
// built once and never mutated, so a single Detector is safe for concurrent
// use.
type Detector struct {
	rules []Rule
}

// NewDetector compiles the catalogue and returns a ready detector.
func NewDetector() *Detector {
	return &Detector{rules: buildCatalogue()}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalize collapses any whitespace run (including newlines) to a single
// space so patterns can match across line breaks. Match offsets are relative
// to the normalized text.
func normalize(text string) string {
	return whitespaceRe.ReplaceAllString(text, " ")
}

// span keys duplicate suppression: the same literal text at the same
// position counts once, no matter how many rules matched it.
type span struct {
	phrase string
	start  int
	end    int
}

// Analyze detects barrier phrases in the given text and returns them with
// the aggregate score, capped at MaxScore. Empty or all-whitespace input
// yields no findings and score 0. Analyze never fails: a scoring function
// that cannot parse its captured value falls back to the rule's fixed
// severity.
func (d *Detector) Analyze(text string) ([]FlaggedPhrase, int) {
	if strings.TrimSpace(text) == "" {
		return nil, 0
	}

	normalized := normalize(text)

	var flagged []FlaggedPhrase
	seen := make(map[span]struct{})

	for i := range d.rules {
		rule := &d.rules[i]

		for _, loc := range rule.re.FindAllStringSubmatchIndex(normalized, -1) {
			phrase := normalized[loc[0]:loc[1]]
			key := span{phrase: strings.ToLower(phrase), start: loc[0], end: loc[1]}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			flagged = append(flagged, FlaggedPhrase{
				Phrase:   phrase,
				Category: rule.category,
				Score:    resolveScore(rule, normalized, loc),
			})
		}
	}

	total := 0
	for _, fp := range flagged {
		total += fp.Score
	}
	if total > MaxScore {
		total = MaxScore
	}

	return flagged, total
}

// resolveScore applies the rule's scoring policy to one match. Failures in a
// scoring function are recoverable: the rule's fallback severity is used and
// the match is still reported.
func resolveScore(rule *Rule, text string, loc []int) int {
	if rule.fn == nil {
		return rule.score
	}

	groups := make([]string, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		groups[i] = text[start:end]
	}

	score, err := rule.fn(groups)
	if err != nil {
		return rule.fallback()
	}
	return score
}
