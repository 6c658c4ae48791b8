// internal/engine/compose/templates.go

// Package compose turns operation results into the final answer text, with a
// deterministic markdown fallback when the generation service is unavailable.
package compose

import (
	"fmt"
	"strings"

	"github.com/vviyott/recall-engine/internal/models"
)

const composerSystemPrompt = "You are an FDA recall data analyst. Answer in the language of the question."

// One template per answer style. The case narrative covers semantic search
// results, the numerical template covers counts, rankings and trends, and the
// logical template covers comparisons and exclusion filtering.
const (
	caseAnswerTemplate = `Question: %s

Recall cases found:
%s

Write a grounded answer from these cases. Summarize the key cases as a table
(date, brand, product, reason, source) and cite the source links. Say so
plainly if the cases do not really answer the question.`

	numericalAnswerTemplate = `Question: %s

Analysis: %s
Result:
%s
Notes: %s

Write a precise, numbers-first answer from this analysis. State the exact
figures and what they cover. Do not invent numbers that are not in the result.`

	logicalAnswerTemplate = `Question: %s

Operation: %s
Result:
%s
Notes: %s

Explain what the operation found, including the key figures and what was
included or excluded. Keep the reasoning explicit and grounded in the result.`
)

// selectTemplate picks the template by the operations that produced results.
// Search wins over numerical, numerical over logical, mirroring how much
// grounding text each result type carries.
func selectTemplate(results []models.ToolResult) string {
	has := func(ops ...models.Operation) bool {
		for _, r := range results {
			for _, op := range ops {
				if r.Operation == op {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has(models.OpSearch):
		return caseAnswerTemplate
	case has(models.OpCount, models.OpRank, models.OpTrend):
		return numericalAnswerTemplate
	case has(models.OpCompare, models.OpExclude):
		return logicalAnswerTemplate
	default:
		return caseAnswerTemplate
	}
}

const promptCaseLimit = 8

// formatCases renders search hits for the prompt context.
func formatCases(cases []models.SearchCase) string {
	if len(cases) == 0 {
		return "No matching cases."
	}

	var sb strings.Builder
	for i, c := range cases {
		if i >= promptCaseLimit {
			break
		}
		fmt.Fprintf(&sb, "Case %d:\n", i+1)
		fmt.Fprintf(&sb, "- company: %s\n", orNA(c.Company))
		fmt.Fprintf(&sb, "- brand: %s\n", orNA(c.Brand))
		fmt.Fprintf(&sb, "- product: %s\n", orNA(c.ProductType))
		fmt.Fprintf(&sb, "- reason: %s\n", orNA(c.RecallReason))
		fmt.Fprintf(&sb, "- detail: %s\n", orNA(c.RecallReasonDetail))
		fmt.Fprintf(&sb, "- published: %s\n", orNA(c.PublishDate))
		fmt.Fprintf(&sb, "- source: %s\n\n", orNA(c.SourceURL))
	}
	return strings.TrimSpace(sb.String())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
