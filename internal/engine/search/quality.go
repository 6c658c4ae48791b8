// internal/engine/search/quality.go
package search

import (
	"math"
	"strings"

	"github.com/vviyott/recall-engine/internal/models"
)

// Keywords checked for overlap between the question and each result.
var qualityKeywords = []string{
	"살모넬라", "salmonella", "리스테리아", "listeria",
	"대장균", "e.coli", "알레르겐", "allergen",
	"우유", "milk", "계란", "egg", "견과류", "nuts",
}

// Quality score thresholds.
const (
	excellentScore = 80
	goodScore      = 60
	fairScore      = 40
)

// EvaluateQuality estimates how relevant the merged result set is to the
// query. A case counts as a keyword match when any domain keyword appears in
// both the query and the case's reason, detail or excerpt. The score combines
// the match ratio with a volume bonus, capped at 100.
func EvaluateQuality(query string, cases []models.SearchCase) models.SearchQuality {
	if len(cases) == 0 {
		return models.SearchQuality{Assessment: "no_results"}
	}

	queryLower := strings.ToLower(query)
	matches := 0

	for _, c := range cases {
		caseText := strings.ToLower(strings.Join([]string{
			c.RecallReason, c.RecallReasonDetail, c.ContentExcerpt,
		}, " "))

		for _, keyword := range qualityKeywords {
			if strings.Contains(queryLower, keyword) && strings.Contains(caseText, keyword) {
				matches++
				break
			}
		}
	}

	total := len(cases)
	ratio := float64(matches) / float64(total)
	score := int(math.Min(100, ratio*100+float64(total*10)))

	var assessment string
	switch {
	case score >= excellentScore:
		assessment = "excellent"
	case score >= goodScore:
		assessment = "good"
	case score >= fairScore:
		assessment = "fair"
	default:
		assessment = "poor"
	}

	return models.SearchQuality{
		Score:          score,
		Assessment:     assessment,
		KeywordMatches: matches,
		TotalResults:   total,
		MatchRatio:     math.Round(ratio*100) / 100,
	}
}
