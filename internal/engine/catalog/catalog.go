// internal/engine/catalog/catalog.go
package catalog

import (
	"context"
	"database/sql"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/dates"
	"github.com/vviyott/recall-engine/internal/engine/translate"
	"github.com/vviyott/recall-engine/internal/models"
)

// ==========================
// 1. Catalog
// ==========================

// Executor runs one selected operation and returns its payload.
type Executor interface {
	Execute(ctx context.Context, call models.ToolCall) (interface{}, error)
}

// Catalog executes the structured-store operations. The semantic search and
// exclusion operations additionally consult the term expander so Korean
// arguments match the English source data.
type Catalog struct {
	db       *sql.DB
	expander *translate.Expander
	resolver *dates.Resolver
	log      logger.Logger
}

func New(db *sql.DB, expander *translate.Expander, resolver *dates.Resolver, log logger.Logger) *Catalog {
	return &Catalog{
		db:       db,
		expander: expander,
		resolver: resolver,
		log:      log.With(map[string]interface{}{"component": "catalog"}),
	}
}

// ==========================
// 2. Dispatch
// ==========================

// Execute routes call to the matching operation. Unknown operations return a
// non-retryable error; the orchestrator records it on the call instead of
// failing the question.
func (c *Catalog) Execute(ctx context.Context, call models.ToolCall) (interface{}, error) {
	args := newArgs(call.Args)

	switch call.Operation {
	case models.OpCount:
		return c.Count(ctx, args.filterSet())

	case models.OpRank:
		return c.Rank(ctx, args.str("field"), args.num("limit", 10), args.filterSet())

	case models.OpTrend:
		return c.Trend(ctx, args.num("months", 12), args.str("date_field"), args.filterSet())

	case models.OpCompare:
		return c.Compare(ctx, compareParams{
			Period1:        args.str("period1"),
			Period2:        args.str("period2"),
			Metric:         args.str("metric"),
			IncludeReasons: args.boolean("include_reasons"),
			DateBasis:      args.str("date_field"),
			Filters:        args.filterSet(),
		})

	case models.OpExclude:
		return c.Exclude(ctx, args.strs("include_terms"), args.strs("exclude_terms"), args.num("limit", 10))

	default:
		return nil, errors.NewUnknownOperationError(string(call.Operation))
	}
}

// ==========================
// 3. Argument decoding
// ==========================

// args reads loosely typed tool-call arguments. The selector validates the
// payload against the operation schema before it gets here, so decoding is
// lenient: absent or mistyped values fall back to defaults.
type args map[string]interface{}

func newArgs(m map[string]interface{}) args {
	if m == nil {
		return args{}
	}
	return args(m)
}

func (a args) str(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

func (a args) num(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func (a args) boolean(key string) bool {
	v, _ := a[key].(bool)
	return v
}

func (a args) strs(key string) []string {
	raw, ok := a[key].([]interface{})
	if !ok {
		if typed, ok := a[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (a args) filterSet() models.FilterSet {
	return models.FilterSet{
		Company:            a.str("company"),
		Brand:              a.str("brand"),
		ProductType:        a.str("product_type"),
		RecallReason:       a.str("recall_reason"),
		RecallReasonDetail: a.str("recall_reason_detail"),
		Year:               a.str("year"),
		Keyword:            a.str("keyword"),
	}
}
