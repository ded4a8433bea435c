package barrier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmptyText(t *testing.T) {
	d := NewDetector()

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		phrases, score := d.Analyze(text)
		assert.Empty(t, phrases)
		assert.Equal(t, 0, score)
	}
}

func TestAnalyzeNoBarriers(t *testing.T) {
	d := NewDetector()

	phrases, score := d.Analyze("We welcome applications from SMEs and new businesses.")
	assert.Empty(t, phrases)
	assert.Equal(t, 0, score)
}

func TestTradingHistoryTiers(t *testing.T) {
	d := NewDetector()

	cases := []struct {
		text string
		want int
	}{
		{"minimum 10 years uninterrupted trading history", 15},
		{"minimum 6 years uninterrupted trading history", 10},
		{"minimum 3 years uninterrupted trading history", 5},
	}

	for _, tc := range cases {
		phrases, _ := d.Analyze(tc.text)
		require.NotEmpty(t, phrases, "text: %s", tc.text)
		assert.Equal(t, CategoryTradingHistory, phrases[0].Category)
		assert.Equal(t, tc.want, phrases[0].Score, "text: %s", tc.text)
	}
}

func TestInsuranceHighTier(t *testing.T) {
	d := NewDetector()

	phrases, score := d.Analyze("Professional Indemnity Insurance of £25 million required.")
	require.NotEmpty(t, phrases)
	assert.GreaterOrEqual(t, score, 15)

	found := false
	for _, fp := range phrases {
		if fp.Category == CategoryInsurance && fp.Score == 15 {
			found = true
		}
	}
	assert.True(t, found, "expected an insurance finding scored 15 for £25M")
}

func TestTurnoverBoundaryExactlyFifty(t *testing.T) {
	d := NewDetector()

	// The >50 tier is strict: exactly 50 stays in the 10-50 band.
	phrases, _ := d.Analyze("Minimum annual turnover of £50 million required.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, CategoryFinancial, phrases[0].Category)
	assert.Equal(t, 12, phrases[0].Score)

	phrases, _ = d.Analyze("Minimum annual turnover of £51 million required.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, 15, phrases[0].Score)
}

func TestZeroToleranceDeadline(t *testing.T) {
	d := NewDetector()

	phrases, _ := d.Analyze("All work must be completed within 6 weeks with zero tolerance.")
	require.NotEmpty(t, phrases)

	found := false
	for _, fp := range phrases {
		if fp.Category == CategoryTimeConstraints && fp.Score >= 12 {
			found = true
		}
	}
	assert.True(t, found, "expected a time constraint finding scored >= 12")
}

func TestMobilizationHours(t *testing.T) {
	d := NewDetector()

	phrases, _ := d.Analyze("Mobilization required within 48 hours of award.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, 12, phrases[0].Score)

	phrases, _ = d.Analyze("Mobilization required within 72 hours of award.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, 8, phrases[0].Score)
}

func TestExactSpanDeduplicated(t *testing.T) {
	d := NewDetector()

	// Two bond rules match the identical span here; only the first in
	// catalogue order is retained.
	phrases, score := d.Analyze("Performance bond of 15% required.")
	require.Len(t, phrases, 1)
	assert.Equal(t, CategoryPenaltyClauses, phrases[0].Category)
	assert.Equal(t, 12, phrases[0].Score)
	assert.Equal(t, 12, score)
}

func TestOverlappingSpansAreDistinctFindings(t *testing.T) {
	d := NewDetector()

	// The broad ISO rule and the narrower one match overlapping but
	// different spans, so both findings are kept; no literal span is
	// reported twice.
	phrases, _ := d.Analyze("Suppliers require ISO 9001, ISO 14001, ISO 27001.")
	require.NotEmpty(t, phrases)

	spans := make(map[string]int)
	for _, fp := range phrases {
		spans[strings.ToLower(fp.Phrase)]++
	}
	for phrase, n := range spans {
		assert.Equal(t, 1, n, "phrase %q reported more than once", phrase)
	}

	assert.Equal(t, CategoryCertifications, phrases[0].Category)
	assert.Equal(t, 12, phrases[0].Score)
}

func TestScoreCappedAtHundred(t *testing.T) {
	d := NewDetector()

	text := "Minimum 20 years uninterrupted trading history. " +
		"Professional Indemnity Insurance of £50 million. " +
		"Public Liability Insurance of £30 million. " +
		"Minimum turnover of £100 million. " +
		"Must employ at least 100 full-time staff. " +
		"ISO 9001, ISO 27001, ISO 20000 certifications required. " +
		"Performance bond of 20% required. " +
		"Liquidated damages: £60,000 per week."

	phrases, score := d.Analyze(text)
	require.NotEmpty(t, phrases)

	raw := 0
	for _, fp := range phrases {
		raw += fp.Score
	}
	require.Greater(t, raw, MaxScore, "fixture must exceed the cap before clamping")
	assert.Equal(t, MaxScore, score)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	d := NewDetector()

	text := "Minimum 10 years uninterrupted trading history. Performance bond of 15% required."

	first, firstScore := d.Analyze(text)
	second, secondScore := d.Analyze(text)

	assert.Equal(t, first, second)
	assert.Equal(t, firstScore, secondScore)
}

func TestMatchAcrossLineBreaks(t *testing.T) {
	d := NewDetector()

	text := "minimum 10 years\nuninterrupted\n  trading history"
	phrases, _ := d.Analyze(text)
	require.NotEmpty(t, phrases)
	assert.Equal(t, 15, phrases[0].Score)
	assert.Equal(t, "minimum 10 years uninterrupted trading history", phrases[0].Phrase)
}

func TestScoringFunctionFallback(t *testing.T) {
	d := NewDetector()

	// A captured value too large for int overflows the parse; the match is
	// still reported with the fallback severity.
	phrases, _ := d.Analyze("minimum 99999999999999999999999 years uninterrupted trading history")
	require.NotEmpty(t, phrases)
	assert.Equal(t, fallbackScore, phrases[0].Score)
}

func TestLiquidatedDamagesThousandsSeparator(t *testing.T) {
	d := NewDetector()

	phrases, _ := d.Analyze("Liquidated damages: £50,000 per week.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, CategoryPenaltyClauses, phrases[0].Category)
	assert.Equal(t, 12, phrases[0].Score)

	phrases, _ = d.Analyze("Liquidated damages: £20,000 per week.")
	require.NotEmpty(t, phrases)
	assert.Equal(t, 8, phrases[0].Score)
}

func TestAllFindingScoresNonNegative(t *testing.T) {
	d := NewDetector()

	text := "Minimum 3 years uninterrupted trading history. Penalties for delays. " +
		"Sole source specification applies. Fortune 500 clients preferred."
	phrases, score := d.Analyze(text)
	require.NotEmpty(t, phrases)

	sum := 0
	for _, fp := range phrases {
		assert.GreaterOrEqual(t, fp.Score, 0)
		sum += fp.Score
	}
	if sum > MaxScore {
		sum = MaxScore
	}
	assert.Equal(t, sum, score)
}

func TestRecommendBandBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, RecommendationLow},
		{25, RecommendationLow},
		{26, RecommendationMedium},
		{50, RecommendationMedium},
		{51, RecommendationHigh},
		{75, RecommendationHigh},
		{76, RecommendationVeryHigh},
		{100, RecommendationVeryHigh},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Recommend(tc.score), "score %d", tc.score)
	}
}

func TestRecommendOutOfRange(t *testing.T) {
	assert.Equal(t, RecommendationLow, Recommend(-5))
	assert.Equal(t, RecommendationVeryHigh, Recommend(250))
}
