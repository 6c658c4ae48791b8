// internal/engine/hint/classifier.go

// Package hint classifies a question into an advisory recommendation for the
// operation selector. The classification is rule-based and deterministic; the
// selector keeps the final say on which operations actually run.
package hint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vviyott/recall-engine/internal/engine/dates"
	"github.com/vviyott/recall-engine/internal/models"
)

const (
	// Clamp ranges for numbers lifted from the question.
	minTrendMonths = 3
	maxTrendMonths = 24
	defTrendMonths = 12
	minRankLimit   = 3
	maxRankLimit   = 20
	defRankLimit   = 5

	// Exclusion candidates longer than this are noise, not terms.
	maxExcludeTermLen = 20
)

var (
	numberPattern  = regexp.MustCompile(`(?i)(?:상위\s*(\d+)|top\s*(\d+)|최근\s*(\d+)\s*개월|(\d+)\s*개)`)
	yearPattern    = regexp.MustCompile(`(20\d{2})`)
	excludePattern = regexp.MustCompile(`([\w가-힣\s,/]+?)\s*(?:는|은)?\s*(?:제외|빼고|without|except)`)
	splitPattern   = regexp.MustCompile(`[,\s/]+`)
)

var (
	excludeTriggers = []string{"제외", "빼고", "빼줘", "빼서", "제외해", "제외한", "without", "except"}
	lastYearWords   = []string{"작년", "지난해", "전년"}
	thisYearWords   = []string{"올해", "금년"}
	compareWords    = []string{"비교", "대비", "vs", "전년 대비", "전년대비"}
	trendWords      = []string{"월별", "월간", "추이", "트렌드", "흐름", "동향", "패턴"}
	rankWords       = []string{"상위", "순위", "랭킹", "가장 많은", "top", "최다", "베스트"}
	countWords      = []string{"몇 건", "건수", "총 몇", "총건수", "how many", "count"}
	caseWords       = []string{"사례", "목록", "리스트", "보여줘", "어떤 제품", "무엇이었", "case", "examples", "제품들"}
	riskWords       = []string{"위험", "치명", "중대", "serious", "class i", "injury", "death"}
)

// Classifier derives operation hints from question text.
type Classifier struct {
	resolver *dates.Resolver
}

func NewClassifier(resolver *dates.Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// Classify inspects the question and returns the recommended operation with
// its extracted parameters. Precedence: exclude, then case/risk search, then
// comparison, then trend, then rank, then count, then a generic fallback.
func (c *Classifier) Classify(question string) models.Hint {
	raw := question
	lower := strings.ToLower(raw)

	n := extractNumber(raw)
	years := extractYears(raw)
	hasLast := containsAny(raw, lastYearWords)
	hasThis := containsAny(raw, thisYearWords)
	explicitCompare := containsAny(raw, compareWords)
	twoYears := len(years) >= 2

	if containsAny(raw, excludeTriggers) {
		terms := extractExcludeTerms(raw)
		return models.Hint{
			Recommended:  models.OpExclude,
			Advisory:     "Prefer filter_exclude_conditions(include_terms, exclude_terms, limit=10) to apply the exclusion and tabulate the key cases.",
			ExcludeTerms: terms,
			IsExclude:    true,
		}
	}

	if containsAny(lower, caseWords) || containsAny(lower, riskWords) {
		h := models.Hint{
			Recommended: models.OpSearch,
			Advisory:    "Prefer search_recall_cases and summarize the matches as a table (date, brand, product, reason, source).",
			IsCases:     true,
		}
		// 재작년 contains 작년, so it must be tested first.
		switch {
		case hasThis:
			h.YearToken = strconv.Itoa(c.resolver.AnchorYear())
		case strings.Contains(raw, "재작년"):
			h.YearToken = strconv.Itoa(c.resolver.AnchorYear() - 2)
		case hasLast:
			h.YearToken = strconv.Itoa(c.resolver.AnchorYear() - 1)
		case len(years) > 0:
			h.YearToken = years[0]
		}
		if h.YearToken != "" {
			h.Advisory = fmt.Sprintf("Prefer search_recall_cases(query=%q or similar) and summarize the matches as a table; back it up with count_recalls if results are thin.",
				h.YearToken+" high-risk recall cases")
		}
		return h
	}

	if (hasLast && hasThis) || twoYears || explicitCompare {
		h := models.Hint{
			Recommended: models.OpCompare,
			IsCompare:   true,
			Years:       years,
		}
		if twoYears {
			h.Advisory = fmt.Sprintf("Prefer compare_periods(%q, %q, include_reasons=true) and state the change rate as a signed percentage.", years[0], years[1])
		} else {
			h.Advisory = `Prefer compare_periods("작년", "올해", include_reasons=true) and state the change rate as a signed percentage with the top reasons.`
		}
		return h
	}

	isTrend := containsAny(raw, trendWords) ||
		(strings.Contains(raw, "최근") && strings.Contains(raw, "개월"))
	if isTrend {
		months := clamp(orDefault(n, defTrendMonths), minTrendMonths, maxTrendMonths)
		return models.Hint{
			Recommended: models.OpTrend,
			Advisory:    fmt.Sprintf("Prefer monthly_trend(months=%d) and summarize the monthly counts as a table or list.", months),
			Count:       months,
			IsTrend:     true,
		}
	}

	if containsAny(lower, rankWords) {
		field := detectRankField(raw, lower)
		limit := clamp(orDefault(n, defRankLimit), minRankLimit, maxRankLimit)
		return models.Hint{
			Recommended: models.OpRank,
			Advisory:    fmt.Sprintf("Prefer rank_by_field(field=%q, limit=%d) and show the top %d entries as a table.", field, limit, limit),
			Count:       limit,
			RankField:   field,
			IsRank:      true,
		}
	}

	if containsAny(lower, countWords) {
		return models.Hint{
			Recommended: models.OpCount,
			Advisory:    "Prefer count_recalls for an exact tally. Pass relative period words (작년/올해/재작년) through unchanged.",
			Years:       years,
			IsCount:     true,
		}
	}

	return models.Hint{
		Recommended: models.OpCount,
		Advisory: "Pick one or two fitting operations among count_recalls, rank_by_field, monthly_trend, compare_periods, " +
			"search_recall_cases and filter_exclude_conditions, and ground the answer in their results. " +
			"Pass relative period words (작년/올해/재작년) through unchanged.",
		Years: years,
	}
}

func detectRankField(raw, lower string) string {
	switch {
	case containsAny(raw, []string{"원인", "사유"}) || strings.Contains(lower, "reason"):
		return "recall_reason_detail"
	case containsAny(raw, []string{"회사", "기업"}) || strings.Contains(lower, "company"):
		return "company"
	case containsAny(raw, []string{"브랜드", "상표"}) || strings.Contains(lower, "brand"):
		return "brand"
	case containsAny(raw, []string{"제품", "식품"}) || strings.Contains(lower, "product"):
		return "product_type"
	default:
		return "recall_reason"
	}
}

// extractExcludeTerms pulls the words immediately before an exclusion trigger,
// split on commas, slashes and whitespace, deduplicated in order.
func extractExcludeTerms(raw string) []string {
	m := excludePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	var terms []string
	seen := make(map[string]bool)
	for _, t := range splitPattern.Split(strings.TrimSpace(m[1]), -1) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] || len([]rune(t)) > maxExcludeTermLen {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

func extractNumber(raw string) int {
	m := numberPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	for _, g := range m[1:] {
		if g != "" {
			n, _ := strconv.Atoi(g)
			return n
		}
	}
	return 0
}

func extractYears(raw string) []string {
	var years []string
	seen := make(map[string]bool)
	for _, m := range yearPattern.FindAllString(raw, -1) {
		if !seen[m] {
			seen[m] = true
			years = append(years, m)
		}
	}
	return years
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
