// internal/engine/catalog/exclude.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

// Exclude returns the most recent records matching the include terms while
// dropping anything matching an exclude term, together with the filtering
// arithmetic over the whole dataset.
func (c *Catalog) Exclude(ctx context.Context, includeTerms, excludeTerms []string, limit int) (*models.ExcludeResult, error) {
	limit = clampLimit(limit, 10, 50)

	b := &queryBuilder{}
	if cond := c.termGroup(ctx, b, includeTerms); cond != "" {
		b.add(cond)
	}
	if cond := c.termGroup(ctx, b, excludeTerms); cond != "" {
		b.add("NOT " + cond)
	}

	query := fmt.Sprintf(
		"SELECT company_name, brand_name, product_type, recall_reason, recall_reason_detail, fda_publish_date, url FROM %s%s ORDER BY fda_publish_date DESC LIMIT %s",
		recallsTable, b.whereClause(), b.placeholder(limit),
	)

	c.log.Debug("exclude query", map[string]interface{}{
		"query":         query,
		"include_terms": includeTerms,
		"exclude_terms": excludeTerms,
	})

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpExclude), err)
	}
	defer rows.Close()

	cases := []models.SearchCase{}
	for rows.Next() {
		var (
			sc                                           models.SearchCase
			company, brand, product, reason, detail, url sql.NullString
			publish                                      sql.NullTime
		)
		if err := rows.Scan(&company, &brand, &product, &reason, &detail, &publish, &url); err != nil {
			return nil, errors.NewQueryExecutionFailedError(string(models.OpExclude), err)
		}
		sc.Company = company.String
		sc.Brand = brand.String
		sc.ProductType = product.String
		sc.RecallReason = reason.String
		sc.RecallReasonDetail = detail.String
		if publish.Valid {
			sc.PublishDate = publish.Time.Format("2006-01-02")
		}
		sc.SourceURL = url.String
		cases = append(cases, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpExclude), err)
	}

	stats, err := c.excludeStats(ctx, includeTerms, excludeTerms)
	if err != nil {
		return nil, err
	}

	return &models.ExcludeResult{
		Cases:        cases,
		TotalFound:   len(cases),
		Stats:        *stats,
		IncludeTerms: includeTerms,
		ExcludeTerms: excludeTerms,
		Limit:        limit,
	}, nil
}

// termGroup renders an OR group where each term, in all its bilingual forms,
// matches any descriptive column including the notice text. Returns "" when
// terms is empty.
func (c *Catalog) termGroup(ctx context.Context, b *queryBuilder, terms []string) string {
	if len(terms) == 0 {
		return ""
	}

	columns := append(append([]string{}, keywordColumns...), "content")
	groups := make([]string, 0, len(terms))
	for _, term := range terms {
		for _, form := range c.expander.Expand(ctx, term) {
			parts := make([]string, 0, len(columns))
			for _, col := range columns {
				parts = append(parts, fmt.Sprintf("%s ILIKE %s", col, b.placeholder("%"+form+"%")))
			}
			groups = append(groups, "("+strings.Join(parts, " OR ")+")")
		}
	}
	return "(" + strings.Join(groups, " OR ") + ")"
}

// excludeStats computes the filtering arithmetic: the overall record count,
// how many records the include terms match, how many the exclude terms match,
// the clamped remainder, and the exclusion rate in percent.
func (c *Catalog) excludeStats(ctx context.Context, includeTerms, excludeTerms []string) (*models.ExcludeStats, error) {
	total, err := c.matchCount(ctx, nil)
	if err != nil {
		return nil, err
	}

	includeCount := total
	if len(includeTerms) > 0 {
		includeCount, err = c.matchCount(ctx, includeTerms)
		if err != nil {
			return nil, err
		}
	}

	excludeCount := 0
	if len(excludeTerms) > 0 {
		excludeCount, err = c.matchCount(ctx, excludeTerms)
		if err != nil {
			return nil, err
		}
	}

	final := includeCount
	if excludeCount > 0 {
		final = includeCount - excludeCount
	}
	if final < 0 {
		final = 0
	}

	rate := 0.0
	if includeCount > 0 {
		rate = math.Round(float64(excludeCount)/float64(includeCount)*1000) / 10
	}

	return &models.ExcludeStats{
		TotalRecords:   total,
		IncludeMatches: includeCount,
		ExcludeMatches: excludeCount,
		FinalFiltered:  final,
		ExclusionRate:  rate,
	}, nil
}

// matchCount counts records matching any of terms; nil terms counts the whole
// table.
func (c *Catalog) matchCount(ctx context.Context, terms []string) (int, error) {
	b := &queryBuilder{}
	if cond := c.termGroup(ctx, b, terms); cond != "" {
		b.add(cond)
	}

	query := "SELECT COUNT(*) FROM " + recallsTable + b.whereClause()

	var count int
	if err := c.db.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		return 0, errors.NewQueryExecutionFailedError(string(models.OpExclude), err)
	}
	return count, nil
}
