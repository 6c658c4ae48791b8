// internal/engine/catalog/rank.go
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

// Caller-facing field names and their columns, in resolution priority order.
// Aliases cover the synonyms the decision service tends to produce; a field
// naming several aliases resolves to the first one listed.
var rankFieldAliases = []struct {
	alias  string
	column string
}{
	{"company", "company_name"},
	{"brand", "brand_name"},
	{"product_type", "product_type"},
	{"product", "product_type"},
	{"recall_reason", "recall_reason"},
	{"reason", "recall_reason"},
	{"recall_detail", "recall_reason_detail"},
	{"detail", "recall_reason_detail"},
	{"contaminant", "recall_reason_detail"},
	{"allergen", "recall_reason_detail"},
}

const defaultRankColumn = "recall_reason"

// resolveRankColumn maps field to a database column: exact alias match first,
// then a substring match against the normalized name, then the default.
func resolveRankColumn(field string) string {
	lowered := strings.ToLower(field)
	for _, entry := range rankFieldAliases {
		if lowered == entry.alias {
			return entry.column
		}
	}

	normalized := strings.NewReplacer("_", "", " ", "").Replace(lowered)
	for _, entry := range rankFieldAliases {
		if strings.Contains(normalized, entry.alias) || strings.Contains(entry.alias, normalized) {
			return entry.column
		}
	}
	return defaultRankColumn
}

// Rank groups records by the resolved field and returns the most frequent
// values. Empty and placeholder values are excluded, and the filter targeting
// the ranked column itself is suppressed.
func (c *Catalog) Rank(ctx context.Context, field string, limit int, f models.FilterSet) (*models.RankResult, error) {
	limit = clampLimit(limit, 10, 20)
	f = c.normalizeFilters(ctx, f)
	column := resolveRankColumn(field)

	b := &queryBuilder{}
	c.applyFilters(ctx, b, f, false, column)

	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS count FROM %s%s GROUP BY %s ORDER BY count DESC LIMIT %s",
		column, recallsTable,
		b.whereClause(
			column+" IS NOT NULL",
			column+" != ''",
			column+" != 'N/A'",
		),
		column, b.placeholder(limit),
	)

	c.log.Debug("rank query", map[string]interface{}{
		"query":  query,
		"field":  field,
		"column": column,
	})

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpRank), err)
	}
	defer rows.Close()

	ranking := []models.RankEntry{}
	for rows.Next() {
		var entry models.RankEntry
		if err := rows.Scan(&entry.Name, &entry.Count); err != nil {
			return nil, errors.NewQueryExecutionFailedError(string(models.OpRank), err)
		}
		ranking = append(ranking, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(string(models.OpRank), err)
	}

	return &models.RankResult{
		Ranking:   ranking,
		Field:     field,
		FieldUsed: column,
		Filters:   f,
	}, nil
}
