// internal/engine/compose/fallback.go
package compose

import (
	"fmt"
	"strings"

	"github.com/vviyott/recall-engine/internal/models"
)

const (
	fallbackSourceLimit = 5

	recallListURL = "https://www.fda.gov/safety/recalls-market-withdrawals-safety-alerts/"
	foodSafetyURL = "https://www.fda.gov/food/food-safety-during-emergencies"
)

// Fallback renders the operation results as plain markdown without any model
// involvement. It is the answer of last resort, so it only states what the
// results contain.
func Fallback(results []models.ToolResult) string {
	if len(results) == 0 {
		return "I could not find relevant recall information for this question."
	}

	var (
		parts []string
		urls  []string
	)
	parts = append(parts, "## FDA Recall Data Analysis\n")

	for _, r := range results {
		if r.Failed() {
			parts = append(parts, fmt.Sprintf("Operation %s failed: %s\n", r.Operation, r.Err))
			continue
		}

		switch payload := r.Result.(type) {
		case *models.CountResult:
			parts = append(parts, fmt.Sprintf("**Total recalls**: %d", payload.Count))
			if !payload.Filters.IsZero() {
				parts = append(parts, fmt.Sprintf("**Filters**: %+v", payload.Filters))
			}

		case *models.RankResult:
			parts = append(parts, fmt.Sprintf("**Ranking by %s**:", payload.FieldUsed))
			for i, entry := range payload.Ranking {
				parts = append(parts, fmt.Sprintf("%d. %s: %d recalls", i+1, entry.Name, entry.Count))
			}

		case *models.TrendResult:
			parts = append(parts, "**Monthly trend**:")
			for _, point := range payload.Trend {
				parts = append(parts, fmt.Sprintf("- %s: %d recalls", point.Month, point.Count))
			}

		case *models.ComparisonResult:
			parts = append(parts, "**Period comparison**:")
			parts = append(parts, fmt.Sprintf("- %s (%s): %d", payload.Period1.Label, payload.Period1.Period, payload.Period1.Total))
			parts = append(parts, fmt.Sprintf("- %s (%s): %d", payload.Period2.Label, payload.Period2.Period, payload.Period2.Total))
			parts = append(parts, fmt.Sprintf("- change: %+.1f%%", payload.ChangePercent))

		case *models.SearchResult:
			parts = append(parts, fmt.Sprintf("**Matching cases (%d)**:", len(payload.Cases)))
			for i, c := range payload.Cases {
				if i >= fallbackSourceLimit {
					break
				}
				parts = append(parts, fmt.Sprintf("%d. **%s** - %s", i+1, orNA(c.Company), orNA(c.ProductType)))
				parts = append(parts, fmt.Sprintf("   reason: %s", orNA(c.RecallReason)))
				parts = append(parts, fmt.Sprintf("   detail: %s", orNA(c.RecallReasonDetail)))
				parts = append(parts, fmt.Sprintf("   published: %s", orNA(c.PublishDate)))
				if c.SourceURL != "" {
					parts = append(parts, fmt.Sprintf("   [full notice](%s)", c.SourceURL))
					urls = append(urls, c.SourceURL)
				}
			}

		case *models.ExcludeResult:
			parts = append(parts, fmt.Sprintf("**Filtered cases**: %d", payload.TotalFound))
			parts = append(parts, fmt.Sprintf("**Statistics**: %d of %d records kept after exclusion",
				payload.Stats.FinalFiltered, payload.Stats.TotalRecords))
			for i, c := range payload.Cases {
				if i >= 3 {
					break
				}
				parts = append(parts, fmt.Sprintf("%d. **%s** - %s", i+1, orNA(c.Company), orNA(c.ProductType)))
				parts = append(parts, fmt.Sprintf("   reason: %s", orNA(c.RecallReason)))
				if c.SourceURL != "" {
					parts = append(parts, fmt.Sprintf("   [full notice](%s)", c.SourceURL))
					urls = append(urls, c.SourceURL)
				}
			}
		}

		parts = append(parts, "")
	}

	if unique := dedupe(urls); len(unique) > 0 {
		parts = append(parts, "---", "**Sources**:")
		for i, url := range unique {
			if i >= fallbackSourceLimit {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. [FDA recall notice #%d](%s)", i+1, i+1, url))
		}
		parts = append(parts, "")
	}

	parts = append(parts,
		"**More information**:",
		fmt.Sprintf("- [FDA recalls, market withdrawals and safety alerts](%s)", recallListURL),
		fmt.Sprintf("- [FDA food safety information](%s)", foodSafetyURL),
	)

	return strings.Join(parts, "\n")
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
