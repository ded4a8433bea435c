package barrier

// Recommendation bands for the aggregate barrier score.
const (
	RecommendationLow      = "Low barrier risk - tender appears SME-friendly"
	RecommendationMedium   = "Medium barrier risk - consider reviewing requirements"
	RecommendationHigh     = "High barrier risk - recommend review for SME accessibility"
	RecommendationVeryHigh = "Very high barrier risk - strongly recommend review and revision"
)

// Recommend maps a barrier score to its qualitative risk band. Out-of-range
// input is absorbed by the band comparisons: anything above 100 is still
// "very high", anything below 0 is still "low".
func Recommend(score int) string {
	switch {
	case score >= 76:
		return RecommendationVeryHigh
	case score >= 51:
		return RecommendationHigh
	case score >= 26:
		return RecommendationMedium
	default:
		return RecommendationLow
	}
}
