// internal/engine/catalog/trend.go
package catalog

import (
	"context"
	"fmt"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

// Trend buckets recall records per month on the chosen date basis and returns
// the most recent months, newest first.
func (c *Catalog) Trend(ctx context.Context, months int, dateBasis string, f models.FilterSet) (*models.TrendResult, error) {
	months = clampLimit(months, 12, 24)
	f = c.normalizeFilters(ctx, f)
	column := dateColumn(dateBasis)

	b := &queryBuilder{}
	c.applyFilters(ctx, b, f, false, "")

	query := fmt.Sprintf(
		"SELECT to_char(%s, 'YYYY-MM') AS month, COUNT(*) AS count FROM %s%s GROUP BY month ORDER BY month DESC LIMIT %s",
		column, recallsTable,
		b.whereClause(column+" IS NOT NULL"),
		b.placeholder(months),
	)

	c.log.Debug("trend query", map[string]interface{}{
		"query":  query,
		"months": months,
		"basis":  column,
	})

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpTrend), err)
	}
	defer rows.Close()

	trend := []models.TrendPoint{}
	for rows.Next() {
		var point models.TrendPoint
		if err := rows.Scan(&point.Month, &point.Count); err != nil {
			return nil, errors.NewQueryExecutionFailedError(string(models.OpTrend), err)
		}
		trend = append(trend, point)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpTrend), err)
	}

	return &models.TrendResult{
		Trend:     trend,
		Months:    months,
		DateBasis: column,
		Filters:   f,
	}, nil
}
