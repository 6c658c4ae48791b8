// internal/engine/dates/resolver.go

// Package dates resolves relative time expressions to absolute year tokens
// anchored at a fixed reference year.
package dates

import (
	"context"
	"strconv"
	"strings"

	"github.com/vviyott/recall-engine/internal/common/logger"
)

// Metrics is the observability hook for unresolved tokens.
type Metrics interface {
	RecordUnresolvedDateToken(ctx context.Context)
}

// Resolver maps a fixed vocabulary of relative expressions ("last year",
// "작년", ...) onto years relative to the anchor. Unrecognized input resolves
// to the anchor year rather than erroring; that fallback is intentional and
// is logged and counted so its rate stays observable.
type Resolver struct {
	anchorYear int
	log        logger.Logger
	metrics    Metrics
}

func NewResolver(anchorYear int, log logger.Logger, metrics Metrics) *Resolver {
	return &Resolver{
		anchorYear: anchorYear,
		log:        log.With(map[string]interface{}{"component": "dateresolver"}),
		metrics:    metrics,
	}
}

// AnchorYear returns the fixed reference year.
func (r *Resolver) AnchorYear() int {
	return r.anchorYear
}

// Offsets from the anchor year, both English and Korean forms. Longer tokens
// are listed before their substrings so "year before last" wins over
// "last year".
var relativeTokens = []struct {
	token  string
	offset int
}{
	{"year before last", -2},
	{"재작년", -2},
	{"last year", -1},
	{"작년도", -1},
	{"작년", -1},
	{"지난해", -1},
	{"전년", -1},
	{"previous year", -1},
	{"this year", 0},
	{"current year", 0},
	{"올해년도", 0},
	{"올해", 0},
	{"이번년", 0},
	{"현재", 0},
	{"금년", 0},
}

// Resolve maps token to a 4-digit year string. A 4-digit numeric input and a
// YYYY-MM input pass through unchanged.
func (r *Resolver) Resolve(ctx context.Context, token string) string {
	trimmed := strings.ToLower(strings.TrimSpace(token))

	for _, rt := range relativeTokens {
		if strings.Contains(trimmed, rt.token) {
			return strconv.Itoa(r.anchorYear + rt.offset)
		}
	}

	if isYear(trimmed) || isYearMonth(trimmed) {
		return trimmed
	}

	r.log.Warn("unresolved relative date token, using anchor year", map[string]interface{}{
		"token":      token,
		"anchorYear": r.anchorYear,
	})
	if r.metrics != nil {
		r.metrics.RecordUnresolvedDateToken(ctx)
	}
	return strconv.Itoa(r.anchorYear)
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func isYearMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	if _, err := strconv.Atoi(s[:4]); err != nil {
		return false
	}
	month, err := strconv.Atoi(s[5:])
	return err == nil && month >= 1 && month <= 12
}
