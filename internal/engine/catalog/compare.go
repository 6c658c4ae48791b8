// internal/engine/catalog/compare.go
package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

type compareParams struct {
	Period1        string
	Period2        string
	Metric         string
	IncludeReasons bool
	DateBasis      string
	Filters        models.FilterSet
}

// Change-rate thresholds, in percent.
const (
	significantChange = 10
	moderateChange    = 3
)

const topBreakdownLimit = 5

// Compare evaluates one metric over two periods and classifies the change.
// Relative period words resolve against the anchor year first; the change
// rate is zero when the first period has no records.
func (c *Catalog) Compare(ctx context.Context, p compareParams) (*models.ComparisonResult, error) {
	// An explicit YYYY-MM naming an impossible month is a caller mistake, not
	// a relative word, so it errors instead of resolving to the anchor year.
	if malformedPeriod(p.Period1) {
		return nil, errors.NewMalformedPeriodError(p.Period1)
	}
	if malformedPeriod(p.Period2) {
		return nil, errors.NewMalformedPeriodError(p.Period2)
	}

	resolved1 := c.resolver.Resolve(ctx, p.Period1)
	resolved2 := c.resolver.Resolve(ctx, p.Period2)

	metric := p.Metric
	if metric == "" {
		metric = "count"
	}

	// Period filtering replaces any year filter carried in the filter set.
	filters := c.normalizeFilters(ctx, p.Filters)
	filters.Year = ""
	column := dateColumn(p.DateBasis)

	data1, err := c.periodData(ctx, p.Period1, resolved1, metric, column, filters, p.IncludeReasons)
	if err != nil {
		return nil, err
	}
	data2, err := c.periodData(ctx, p.Period2, resolved2, metric, column, filters, p.IncludeReasons)
	if err != nil {
		return nil, err
	}

	change := data2.Total - data1.Total
	changePercent := 0.0
	if data1.Total > 0 {
		changePercent = math.Round(float64(change)/float64(data1.Total)*1000) / 10
	}

	trend, trendText := classifyChange(changePercent)

	return &models.ComparisonResult{
		Period1:       *data1,
		Period2:       *data2,
		Change:        change,
		ChangePercent: changePercent,
		Trend:         trend,
		TrendText:     trendText,
		Metric:        metric,
	}, nil
}

func classifyChange(changePercent float64) (string, string) {
	switch {
	case changePercent > significantChange:
		return "significant_increase", "significant increase"
	case changePercent > moderateChange:
		return "moderate_increase", "moderate increase"
	case changePercent < -significantChange:
		return "significant_decrease", "significant decrease"
	case changePercent < -moderateChange:
		return "moderate_decrease", "moderate decrease"
	default:
		return "stable", "stable"
	}
}

// malformedPeriod reports whether period has the explicit YYYY-MM shape but
// names a month outside 1..12.
func malformedPeriod(period string) bool {
	if len(period) != 7 || period[4] != '-' {
		return false
	}
	for i, r := range period {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	month, _ := strconv.Atoi(period[5:])
	return month < 1 || month > 12
}

func (c *Catalog) periodData(ctx context.Context, label, period, metric, column string, f models.FilterSet, includeReasons bool) (*models.PeriodData, error) {
	b := &queryBuilder{}
	b.period(column, period)
	c.applyFilters(ctx, b, f, false, "")
	where := b.whereClause()

	query := metricQuery(metric, where)

	c.log.Debug("compare period query", map[string]interface{}{
		"query":  query,
		"period": period,
		"metric": metric,
	})

	var total int
	if err := c.db.QueryRowContext(ctx, query, b.args...).Scan(&total); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpCompare), err)
	}

	data := &models.PeriodData{
		Label:  label,
		Period: period,
		Total:  total,
	}

	if includeReasons {
		reasons, err := c.topBreakdown(ctx, "recall_reason", where, b.args)
		if err != nil {
			return nil, err
		}
		details, err := c.topBreakdown(ctx, "recall_reason_detail", where, b.args)
		if err != nil {
			return nil, err
		}
		data.TopReasons = reasons
		data.TopDetails = details
	}

	return data, nil
}

func metricQuery(metric, where string) string {
	switch metric {
	case "companies":
		return fmt.Sprintf("SELECT COUNT(DISTINCT company_name) FROM %s%s AND company_name IS NOT NULL AND company_name != ''", recallsTable, where)
	case "brands":
		return fmt.Sprintf("SELECT COUNT(DISTINCT brand_name) FROM %s%s AND brand_name IS NOT NULL AND brand_name != ''", recallsTable, where)
	case "product_types":
		return fmt.Sprintf("SELECT COUNT(DISTINCT product_type) FROM %s%s AND product_type IS NOT NULL AND product_type != ''", recallsTable, where)
	default:
		return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", recallsTable, where)
	}
}

// topBreakdown returns the most frequent non-empty values of column inside
// the period's WHERE clause.
func (c *Catalog) topBreakdown(ctx context.Context, column, where string, args []interface{}) ([]models.RankEntry, error) {
	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS count FROM %s%s AND %s IS NOT NULL AND %s != '' GROUP BY %s ORDER BY count DESC LIMIT %d",
		column, recallsTable, where, column, column, column, topBreakdownLimit,
	)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpCompare), err)
	}
	defer rows.Close()

	entries := []models.RankEntry{}
	for rows.Next() {
		var entry models.RankEntry
		if err := rows.Scan(&entry.Name, &entry.Count); err != nil {
			return nil, errors.NewQueryExecutionFailedError(string(models.OpCompare), err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpCompare), err)
	}
	return entries, nil
}
