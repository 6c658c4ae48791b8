// internal/engine/selector/rules.go
package selector

import (
	"context"

	"github.com/vviyott/recall-engine/internal/models"
)

// RuleSelector turns the classifier hint directly into operation calls. It
// needs no external service, which makes it the fallback when the decision
// service is down or unconfigured, and gives tests a deterministic selector.
type RuleSelector struct{}

func NewRuleSelector() *RuleSelector {
	return &RuleSelector{}
}

func (s *RuleSelector) Select(_ context.Context, question string, h models.Hint, _ []models.ChatTurn) (*Decision, error) {
	call := models.ToolCall{Operation: h.Recommended, Args: map[string]interface{}{}}

	switch {
	case h.IsExclude:
		if len(h.ExcludeTerms) == 0 {
			// Nothing concrete to exclude; fall back to a plain search.
			return &Decision{Calls: []models.ToolCall{{
				Operation: models.OpSearch,
				Args:      map[string]interface{}{"query": question},
			}}}, nil
		}
		call.Args["exclude_terms"] = toInterfaces(h.ExcludeTerms)
		call.Args["limit"] = 10

	case h.IsCases:
		query := question
		if h.YearToken != "" {
			query = h.YearToken + " " + question
		}
		call.Args["query"] = query

	case h.IsCompare:
		if len(h.Years) >= 2 {
			call.Args["period1"] = h.Years[0]
			call.Args["period2"] = h.Years[1]
		} else {
			call.Args["period1"] = "작년"
			call.Args["period2"] = "올해"
		}
		call.Args["include_reasons"] = true

	case h.IsTrend:
		call.Args["months"] = h.Count

	case h.IsRank:
		call.Args["field"] = h.RankField
		call.Args["limit"] = h.Count

	default:
		if len(h.Years) > 0 {
			call.Args["year"] = h.Years[0]
		}
	}

	return &Decision{Calls: []models.ToolCall{call}}, nil
}

func toInterfaces(terms []string) []interface{} {
	out := make([]interface{}, 0, len(terms))
	for _, t := range terms {
		out = append(out, t)
	}
	return out
}
