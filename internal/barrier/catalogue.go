package barrier

import (
	"regexp"
	"strconv"
	"strings"
)

// Barrier categories. Every rule in the catalogue maps to exactly one.
const (
	CategoryTradingHistory   = "Trading History"
	CategoryInsurance        = "Insurance"
	CategoryFinancial        = "Financial Thresholds"
	CategoryTimeConstraints  = "Time Constraints"
	CategoryCertifications   = "Certifications"
	CategoryGeographic       = "Geographic Requirements"
	CategoryInfrastructure   = "Infrastructure"
	CategoryExperience       = "Experience Requirements"
	CategoryResources        = "Resource Requirements"
	CategoryPenaltyClauses   = "Penalty Clauses"
	CategoryProprietarySpecs = "Proprietary Specifications"
)

// fallbackScore is used when a rule has a scoring function but the captured
// value cannot be parsed, and the rule declares no fixed score of its own.
const fallbackScore = 5

// scoreFunc resolves a severity from the submatch groups of one match.
// groups[0] is the full match; groups[i] is capture group i ("" when the
// group did not participate).
type scoreFunc func(groups []string) (int, error)

// Rule binds one pattern to a category and a scoring policy. Exactly one of
// score / fn drives severity; score doubles as the fn fallback when set.
type Rule struct {
	re       *regexp.Regexp
	category string
	score    int
	fn       scoreFunc
}

// fallback returns the severity to use when fn fails.
func (r *Rule) fallback() int {
	if r.score > 0 {
		return r.score
	}
	return fallbackScore
}

// intGroup wraps a tier function over the first capture group parsed as an
// integer (thousands separators stripped).
func intGroup(tier func(n int) int) scoreFunc {
	return func(groups []string) (int, error) {
		if len(groups) < 2 {
			return 0, strconv.ErrSyntax
		}
		n, err := strconv.Atoi(strings.ReplaceAll(groups[1], ",", ""))
		if err != nil {
			return 0, err
		}
		return tier(n), nil
	}
}

// millionsGroup wraps a tier function over the first capture group parsed as
// a decimal amount in millions.
func millionsGroup(tier func(v float64) int) scoreFunc {
	return func(groups []string) (int, error) {
		if len(groups) < 2 {
			return 0, strconv.ErrSyntax
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", ""), 64)
		if err != nil {
			return 0, err
		}
		return tier(v), nil
	}
}

// Tier functions. The boundary operators are deliberately not uniform across
// related rules; they reproduce the published scoring policy as-is.

func tradingYears(n int) int {
	if n >= 10 {
		return 15
	}
	if n >= 5 {
		return 10
	}
	return 5
}

func insuranceStandard(v float64) int {
	if v > 20 {
		return 15
	}
	if v >= 10 {
		return 12
	}
	return 8
}

func publicLiability(v float64) int {
	if v > 20 {
		return 15
	}
	if v >= 15 {
		return 12
	}
	if v >= 10 {
		return 8
	}
	return 5
}

func multiPolicy(v float64) int {
	if v >= 10 {
		return 15
	}
	return 12
}

func employerLiability(v float64) int {
	if v > 15 {
		return 12
	}
	return 8
}

func turnover(v float64) int {
	if v > 50 {
		return 15
	}
	if v >= 10 {
		return 12
	}
	return 8
}

func mobilizationHours(n int) int {
	if n <= 48 {
		return 12
	}
	return 8
}

func completionWeeks(n int) int {
	if n <= 8 {
		return 10
	}
	return 6
}

func certificationCount(n int) int {
	if n >= 3 {
		return 12
	}
	return 8
}

func equipmentValue(v float64) int {
	if v > 5 {
		return 12
	}
	return 8
}

func siteOfficeStaff(n int) int {
	if n >= 10 {
		return 10
	}
	return 6
}

func caseValue(v float64) int {
	if v >= 100 {
		return 12
	}
	if v >= 50 {
		return 10
	}
	return 8
}

func headcount(n int) int {
	if n >= 50 {
		return 12
	}
	if n >= 20 {
		return 8
	}
	return 5
}

func consultantTeam(n int) int {
	if n >= 8 {
		return 10
	}
	return 6
}

func staffExperienceYears(n int) int {
	if n >= 10 {
		return 10
	}
	return 6
}

func workerMobilization(n int) int {
	if n >= 50 {
		return 12
	}
	return 8
}

func liquidatedDamages(n int) int {
	if n >= 50000 {
		return 12
	}
	return 8
}

func bondPercent(n int) int {
	if n >= 15 {
		return 12
	}
	return 8
}

// ruleSpec is the declarative form a catalogue entry is written in before
// compilation. Patterns are compiled case-insensitively.
type ruleSpec struct {
	pattern  string
	category string
	score    int
	fn       scoreFunc
}

// buildCatalogue compiles the full ordered rule set. It is pure static data
// and panics only on a malformed pattern, which is a programming error.
func buildCatalogue() []Rule {
	specs := []ruleSpec{
		// Excessive trading history requirements.
		{pattern: `minimum\s+(?:of\s+)?(\d+)\s+years?\s+uninterrupted\s+trading\s+history`, category: CategoryTradingHistory, fn: intGroup(tradingYears)},
		{pattern: `(\d+)\+?\s+years?\s+uninterrupted\s+trading`, category: CategoryTradingHistory, fn: intGroup(tradingYears)},
		{pattern: `minimum\s+(?:of\s+)?(\d+)\s+years?\s+continuous\s+operation`, category: CategoryTradingHistory, fn: intGroup(tradingYears)},
		{pattern: `must\s+demonstrate\s+continuous\s+operation\s+since`, category: CategoryTradingHistory, score: 12},
		{pattern: `evidence\s+of\s+trading\s+for\s+minimum\s+(\d+)\s+years?\s+required`, category: CategoryTradingHistory, fn: intGroup(tradingYears)},
		{pattern: `established\s+business\s+with\s+(\d+)\+?\s+years?\s+track\s+record`, category: CategoryTradingHistory, fn: intGroup(tradingYears)},

		// Disproportionate insurance requirements.
		{pattern: `professional\s+indemnity\s+insurance\s+(?:of\s+)?£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(insuranceStandard)},
		{pattern: `public\s+liability\s+insurance\s+(?:of|exceeding)?\s*£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(publicLiability)},
		{pattern: `liability\s+insurance\s+(?:of|exceeding)?\s*£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(insuranceStandard)},
		{pattern: `£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+liability\s+insurance`, category: CategoryInsurance, fn: millionsGroup(insuranceStandard)},
		{pattern: `multiple\s+insurance\s+policies?\s+each\s+exceeding\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(multiPolicy)},
		{pattern: `employer['\s]?s\s+liability\s+insurance\s+(?:of|exceeding)?\s*£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(employerLiability)},
		{pattern: `insurance\s+requirements?:\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInsurance, fn: millionsGroup(insuranceStandard)},

		// Excessive financial thresholds.
		{pattern: `minimum\s+(?:annual\s+)?turnover\s+(?:of\s+)?£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+for\s+past\s+\d+\s+consecutive\s+years?`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `minimum\s+(?:annual\s+)?turnover\s+(?:of\s+)?£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `turnover\s+exceeding\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `audited\s+accounts?\s+demonstrating\s+turnover\s+exceeding\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `minimum\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+annual\s+turnover`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `financial\s+stability\s+with\s+minimum\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+revenue`, category: CategoryFinancial, fn: millionsGroup(turnover)},
		{pattern: `parent\s+company\s+guarantee\s+required`, category: CategoryFinancial, score: 10},

		// Unrealistic time constraints.
		{pattern: `completed\s+within\s+(\d+)\s+weeks?\s+(?:of\s+contract\s+award\s+)?with\s+zero\s+tolerance`, category: CategoryTimeConstraints, score: 12},
		{pattern: `project\s+completion\s+in\s+(\d+)\s+weeks?\s+with\s+zero\s+tolerance\s+for\s+delays?`, category: CategoryTimeConstraints, score: 12},
		{pattern: `no\s+extensions?\s+permitted\s+under\s+any\s+circumstances`, category: CategoryTimeConstraints, score: 12},
		{pattern: `no\s+extensions?\s+permitted`, category: CategoryTimeConstraints, score: 10},
		{pattern: `mobilization\s+required\s+within\s+(\d+)\s+hours?`, category: CategoryTimeConstraints, fn: intGroup(mobilizationHours)},
		{pattern: `completion\s+deadline[:\s]+(\d+)\s+weeks?\s+with\s+zero\s+tolerance`, category: CategoryTimeConstraints, score: 12},
		{pattern: `all\s+work\s+must\s+be\s+completed\s+within\s+(\d+)\s+weeks?`, category: CategoryTimeConstraints, fn: intGroup(completionWeeks)},

		// Excessive certification requirements.
		{pattern: `(?:must\s+hold|required)\s+(?:ISO\s+\d+(?:,\s*)?){3,}`, category: CategoryCertifications, score: 12},
		{pattern: `ISO\s+\d+(?:,\s*ISO\s+\d+){2,}`, category: CategoryCertifications, score: 12},
		{pattern: `ISO\s+\d+(?:,\s*ISO\s+\d+){1,2}(?:,\s*[A-Za-z\s]+)?`, category: CategoryCertifications, score: 8},
		{pattern: `(\d+)\s+certifications?\s+(?:required|mandatory)`, category: CategoryCertifications, fn: intGroup(certificationCount)},
		{pattern: `must\s+hold\s+certification\s+from\s+[a-z\s]+body`, category: CategoryCertifications, score: 8},
		{pattern: `all\s+proposed\s+staff\s+must\s+have\s+[a-z\s]+qualification`, category: CategoryCertifications, score: 8},

		// Geographic or infrastructure requirements.
		{pattern: `must\s+maintain\s+offices?\s+in\s+(?:[A-Z][a-z]+(?:,\s*)?){2,}`, category: CategoryGeographic, score: 10},
		{pattern: `must\s+own\s+equipment\s+valued\s+at\s+minimum\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)`, category: CategoryInfrastructure, fn: millionsGroup(equipmentValue)},
		{pattern: `dedicated\s+site\s+office\s+with\s+minimum\s+(\d+)\s+full[- ]time\s+staff`, category: CategoryInfrastructure, fn: intGroup(siteOfficeStaff)},

		// Overly specific experience requirements.
		{pattern: `must\s+have\s+completed\s+contracts?\s+with\s+minimum\s+(\d+)\s+central\s+government\s+departments?`, category: CategoryExperience, score: 12},
		{pattern: `evidence\s+of\s+handling\s+cases?\s+exceeding\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+in\s+value`, category: CategoryExperience, fn: millionsGroup(caseValue)},
		{pattern: `cases?\s+exceeding\s+£?\s*(\d+(?:\.\d+)?)\s*(?:million|m)\s+in\s+value`, category: CategoryExperience, fn: millionsGroup(caseValue)},
		{pattern: `portfolio\s+must\s+demonstrate\s+projects?\s+for\s+fortune\s+500\s+clients?`, category: CategoryExperience, score: 12},
		{pattern: `fortune\s+500\s+clients?`, category: CategoryExperience, score: 10},
		{pattern: `previous\s+experience\s+with\s+[a-z\s]+(?:mandatory|required)`, category: CategoryExperience, score: 10},
		{pattern: `top\s+(\d+)\s+(?:law\s+firm|consultancy\s+firm|global\s+consultancy)`, category: CategoryExperience, score: 12},

		// Excessive resource requirements.
		{pattern: `must\s+employ\s+at\s+least\s+(\d+)\s+full[- ]time`, category: CategoryResources, fn: intGroup(headcount)},
		{pattern: `minimum\s+team\s+of\s+(\d+)\s+senior\s+consultants?`, category: CategoryResources, fn: intGroup(consultantTeam)},
		{pattern: `minimum\s+(\d+)\s+years?\s+experience\s+(?:each|required)`, category: CategoryResources, fn: intGroup(staffExperienceYears)},
		{pattern: `mobilize\s+(\d+)\+\s+workers?`, category: CategoryResources, fn: intGroup(workerMobilization)},

		// Disproportionate penalty clauses.
		{pattern: `liquidated\s+damages[:\s]+£?\s*(\d+(?:,\d+)?)\s+per\s+week`, category: CategoryPenaltyClauses, fn: intGroup(liquidatedDamages)},
		{pattern: `performance\s+bond\s+of\s+(\d+)[-–]?(\d+)?%`, category: CategoryPenaltyClauses, fn: intGroup(bondPercent)},
		{pattern: `performance\s+bond\s+of\s+(\d+)%`, category: CategoryPenaltyClauses, fn: intGroup(bondPercent)},
		{pattern: `penalty\s+clauses?\s+with\s+zero\s+tolerance`, category: CategoryPenaltyClauses, score: 12},
		{pattern: `penalties?\s+for\s+delays?`, category: CategoryPenaltyClauses, score: 6},

		// Sole-source or proprietary specifications.
		{pattern: `must\s+use\s+materials?\s+from\s+[a-z\s]+manufacturer\s+only`, category: CategoryProprietarySpecs, score: 10},
		{pattern: `sole\s+source\s+specifications?`, category: CategoryProprietarySpecs, score: 10},
		{pattern: `compliance\s+with\s+proprietary\s+frameworks?\s+mandatory`, category: CategoryProprietarySpecs, score: 10},
		{pattern: `proprietary\s+frameworks?\s+mandatory`, category: CategoryProprietarySpecs, score: 10},
		{pattern: `must\s+use\s+[a-z\s]+(?:software|system)\s+exclusively`, category: CategoryProprietarySpecs, score: 10},
		{pattern: `specific\s+manufacturer\s+requirements?`, category: CategoryProprietarySpecs, score: 8},
	}

	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		rules = append(rules, Rule{
			re:       regexp.MustCompile(`(?i)` + s.pattern),
			category: s.category,
			score:    s.score,
			fn:       s.fn,
		})
	}
	return rules
}
