// internal/engine/catalog/filters.go

// Package catalog implements the analytic operations over the structured
// recall store: counting, ranking, monthly trends, period comparison and
// exclusion filtering.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vviyott/recall-engine/internal/engine/translate"
	"github.com/vviyott/recall-engine/internal/models"
)

const recallsTable = "recalls"

// Pathogen and contaminant names. A recall_reason value matching one of these
// belongs in recall_reason_detail; the decision service sometimes confuses the
// two fields.
var detailVocabulary = []string{
	"salmonella", "리스테리아", "listeria", "listeria monocytogenes",
	"e. coli", "ecoli", "escherichia", "norovirus", "노로바이러스",
	"campylobacter", "shigella", "clostridium", "botulinum",
}

// looksLikeDetail reports whether value (or its English form) names a
// pathogen/contaminant from the detail vocabulary.
func (c *Catalog) looksLikeDetail(ctx context.Context, value string) bool {
	if value == "" {
		return false
	}
	forms := []string{strings.ToLower(value)}
	if translate.ContainsKorean(value) {
		if english := c.expander.TranslateCached(ctx, value); !strings.EqualFold(english, value) {
			forms = append(forms, strings.ToLower(english))
		}
	}
	for _, form := range forms {
		for _, term := range detailVocabulary {
			if strings.Contains(form, term) {
				return true
			}
		}
	}
	return false
}

// normalizeFilters reclassifies a pathogen passed as recall_reason into
// recall_reason_detail. At most one of the two fields survives normalization.
func (c *Catalog) normalizeFilters(ctx context.Context, f models.FilterSet) models.FilterSet {
	if f.RecallReason != "" && f.RecallReasonDetail == "" && c.looksLikeDetail(ctx, f.RecallReason) {
		f.RecallReasonDetail = f.RecallReason
		f.RecallReason = ""
	}
	if f.Year != "" {
		f.Year = c.resolver.Resolve(ctx, f.Year)
	}
	return f
}

// queryBuilder accumulates WHERE conditions with positional placeholders.
type queryBuilder struct {
	conditions []string
	args       []interface{}
}

func (b *queryBuilder) placeholder(arg interface{}) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) add(condition string) {
	b.conditions = append(b.conditions, condition)
}

// whereClause renders the accumulated conditions, prefixed with extra fixed
// conditions that take no arguments.
func (b *queryBuilder) whereClause(fixed ...string) string {
	all := append(append([]string{}, fixed...), b.conditions...)
	if len(all) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(all, " AND ")
}

// likeAny adds an OR group of case-insensitive substring matches of each term
// against a single column.
func (b *queryBuilder) likeAny(column string, terms []string) {
	if len(terms) == 0 {
		return
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, fmt.Sprintf("%s ILIKE %s", column, b.placeholder("%"+term+"%")))
	}
	b.add("(" + strings.Join(parts, " OR ") + ")")
}

// equalAny adds an OR group of case-insensitive exact matches.
func (b *queryBuilder) equalAny(column string, terms []string) {
	if len(terms) == 0 {
		return
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, b.placeholder(term)))
	}
	b.add("(" + strings.Join(parts, " OR ") + ")")
}

// keywordColumns are the fields covered by the unified keyword search. The
// full-text content column participates only where the original data carries
// it (count and exclusion filtering).
var keywordColumns = []string{
	"company_name", "brand_name", "product_type",
	"recall_reason", "recall_reason_detail",
}

// keywordAny adds an OR group matching each term against every keyword column.
func (b *queryBuilder) keywordAny(terms []string, withContent bool) {
	if len(terms) == 0 {
		return
	}
	columns := keywordColumns
	if withContent {
		columns = append(append([]string{}, keywordColumns...), "content")
	}

	groups := make([]string, 0, len(terms))
	for _, term := range terms {
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			parts = append(parts, fmt.Sprintf("%s ILIKE %s", col, b.placeholder("%"+term+"%")))
		}
		groups = append(groups, "("+strings.Join(parts, " OR ")+")")
	}
	b.add("(" + strings.Join(groups, " OR ") + ")")
}

// period adds a year (YYYY) or month (YYYY-MM) equality on dateColumn.
// Anything else is silently skipped, mirroring how unparseable periods
// degrade to an unfiltered query.
func (b *queryBuilder) period(dateColumn, period string) {
	switch len(period) {
	case 4:
		b.add(fmt.Sprintf("to_char(%s, 'YYYY') = %s", dateColumn, b.placeholder(period)))
	case 7:
		b.add(fmt.Sprintf("to_char(%s, 'YYYY-MM') = %s", dateColumn, b.placeholder(period)))
	}
}

// applyFilters adds the shared FilterSet conditions. The skip column, when not
// empty, suppresses the filter targeting that column (rankings must not filter
// on the field being ranked).
func (c *Catalog) applyFilters(ctx context.Context, b *queryBuilder, f models.FilterSet, withContent bool, skipColumn string) {
	if f.Keyword != "" {
		b.keywordAny(c.expander.Expand(ctx, f.Keyword), withContent)
	}
	if f.Company != "" && skipColumn != "company_name" {
		b.likeAny("company_name", c.expander.Expand(ctx, f.Company))
	}
	if f.Brand != "" && skipColumn != "brand_name" {
		b.likeAny("brand_name", c.expander.Expand(ctx, f.Brand))
	}
	if f.ProductType != "" && skipColumn != "product_type" {
		b.likeAny("product_type", c.expander.Expand(ctx, f.ProductType))
	}
	if f.RecallReason != "" && skipColumn != "recall_reason" {
		b.equalAny("recall_reason", c.expander.Expand(ctx, f.RecallReason))
	}
	if f.RecallReasonDetail != "" && skipColumn != "recall_reason_detail" {
		b.likeAny("recall_reason_detail", c.expander.Expand(ctx, f.RecallReasonDetail))
	}
	if f.Year != "" {
		b.period("fda_publish_date", f.Year)
	}
}

// clampLimit bounds a caller-provided row or month limit. Non-positive values
// take the default.
func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// dateColumn maps the caller-facing date basis name onto a column. Unknown
// values fall back to the FDA publication date.
func dateColumn(basis string) string {
	switch strings.ToLower(basis) {
	case "company", "company_announcement":
		return "company_announcement_date"
	default:
		return "fda_publish_date"
	}
}
