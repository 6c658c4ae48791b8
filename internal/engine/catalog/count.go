// internal/engine/catalog/count.go
package catalog

import (
	"context"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

// Count tallies recall records matching the filter set. The keyword filter
// spans every descriptive column including the full notice text.
func (c *Catalog) Count(ctx context.Context, f models.FilterSet) (*models.CountResult, error) {
	f = c.normalizeFilters(ctx, f)

	b := &queryBuilder{}
	c.applyFilters(ctx, b, f, true, "")

	query := "SELECT COUNT(*) FROM " + recallsTable + b.whereClause()

	c.log.Debug("count query", map[string]interface{}{
		"query":   query,
		"filters": f,
	})

	var count int
	if err := c.db.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpCount), err)
	}

	return &models.CountResult{Count: count, Filters: f}, nil
}
