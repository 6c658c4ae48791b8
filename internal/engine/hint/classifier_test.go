// internal/engine/hint/classifier_test.go
package hint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/dates"
	"github.com/vviyott/recall-engine/internal/models"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(dates.NewResolver(2025, logger.NewTestLogger(t), nil))
}

func TestClassify_ExcludeWinsOverEverything(t *testing.T) {
	c := newClassifier(t)

	// Also carries count and case signals; exclusion has the highest precedence.
	h := c.Classify("살모넬라 빼고 세균 오염 사례 몇 건이야?")

	assert.Equal(t, models.OpExclude, h.Recommended)
	assert.True(t, h.IsExclude)
	assert.Contains(t, h.ExcludeTerms, "살모넬라")
}

func TestClassify_ExcludeTermExtraction(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		question string
		expected []string
	}{
		{"single korean term", "리스테리아 제외하고 보여줘", []string{"리스테리아"}},
		{"comma separated", "우유, 계란 빼고 알레르겐 리콜", []string{"우유", "계란"}},
		{"english trigger", "allergen recalls without salmonella", []string{"allergen", "recalls"}},
		{"trigger only", "제외해서 보여줘", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(tt.question)
			assert.True(t, h.IsExclude)
			assert.Equal(t, tt.expected, h.ExcludeTerms)
		})
	}
}

func TestClassify_CasesAndRiskRouteToSearch(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name      string
		question  string
		yearToken string
	}{
		{"case word with this year", "올해 리콜 사례 알려줘", "2025"},
		{"risk word with last year", "작년 위험 리콜 보여줘", "2024"},
		{"year before last", "재작년 치명적인 리콜", "2023"},
		{"explicit year", "2022년 리콜 사례", "2022"},
		{"no year", "리콜 사례 보여줘", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(tt.question)
			assert.Equal(t, models.OpSearch, h.Recommended)
			assert.True(t, h.IsCases)
			assert.Equal(t, tt.yearToken, h.YearToken)
		})
	}
}

func TestClassify_CompareSignals(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		question string
		years    []string
	}{
		{"both relative years", "작년이랑 올해 리콜 비교해줘", nil},
		{"two explicit years", "2023 대비 2024 리콜 변화", []string{"2023", "2024"}},
		{"explicit compare word only", "전년 대비 얼마나 변했어?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(tt.question)
			assert.Equal(t, models.OpCompare, h.Recommended)
			assert.True(t, h.IsCompare)
			assert.Equal(t, tt.years, h.Years)
		})
	}
}

func TestClassify_TrendMonthsClamped(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		question string
		months   int
	}{
		{"default", "월별 추이 알려줘", 12},
		{"explicit months", "최근 6개월 트렌드", 6},
		{"below minimum", "최근 1개월 추이", 3},
		{"above maximum", "최근 36개월 동향", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(tt.question)
			assert.Equal(t, models.OpTrend, h.Recommended)
			assert.True(t, h.IsTrend)
			assert.Equal(t, tt.months, h.Count)
		})
	}
}

func TestClassify_RankFieldDetection(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		question string
		field    string
		limit    int
	}{
		{"reason detail", "가장 많은 리콜 원인 상위 4개", "recall_reason_detail", 4},
		{"company", "상위 10개 회사", "company", 10},
		{"brand", "최다 브랜드 순위", "brand", 5},
		{"product", "top 3 제품", "product_type", 3},
		{"fallback field", "랭킹 알려줘", "recall_reason", 5},
		{"limit clamped high", "상위 50 회사", "company", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(tt.question)
			assert.Equal(t, models.OpRank, h.Recommended)
			assert.True(t, h.IsRank)
			assert.Equal(t, tt.field, h.RankField)
			assert.Equal(t, tt.limit, h.Count)
		})
	}
}

func TestClassify_CountAndFallback(t *testing.T) {
	c := newClassifier(t)

	h := c.Classify("2024년 리콜 총 몇 건?")
	assert.Equal(t, models.OpCount, h.Recommended)
	assert.True(t, h.IsCount)
	assert.Equal(t, []string{"2024"}, h.Years)

	h = c.Classify("리콜에 대해 설명해줘")
	assert.Equal(t, models.OpCount, h.Recommended)
	assert.False(t, h.IsCount)
	assert.NotEmpty(t, h.Advisory)
}
