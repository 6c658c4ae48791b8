// internal/engine/translate/expander_test.go
package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/cache"
)

type fakeTranslator struct {
	calls   int
	results map[string]string
	err     error
}

func (f *fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if out, ok := f.results[text]; ok {
		return out, nil
	}
	return text, nil
}

type fallbackMetrics struct {
	fallbacks int
}

func (m *fallbackMetrics) RecordTranslationFallback(ctx context.Context) {
	m.fallbacks++
}

func TestExpand_EnglishTermIsIdentity(t *testing.T) {
	translator := &fakeTranslator{}
	e := NewExpander(translator, cache.NewTTL(16, time.Minute), logger.NewTestLogger(t), nil)

	got := e.Expand(context.Background(), "milk")

	assert.Equal(t, []string{"milk"}, got)
	assert.Zero(t, translator.calls, "English input must not reach the translator")
}

func TestExpand_KoreanTermAddsTranslation(t *testing.T) {
	translator := &fakeTranslator{results: map[string]string{"살모넬라": "Salmonella"}}
	e := NewExpander(translator, cache.NewTTL(16, time.Minute), logger.NewTestLogger(t), nil)

	got := e.Expand(context.Background(), "살모넬라")

	assert.Equal(t, []string{"살모넬라", "Salmonella"}, got)
}

func TestExpand_CacheSkipsRepeatCalls(t *testing.T) {
	translator := &fakeTranslator{results: map[string]string{"우유": "milk"}}
	e := NewExpander(translator, cache.NewTTL(16, time.Minute), logger.NewTestLogger(t), nil)
	ctx := context.Background()

	first := e.Expand(ctx, "우유")
	second := e.Expand(ctx, "우유")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, translator.calls)
}

func TestExpand_ServiceFailureFallsBackToOriginal(t *testing.T) {
	translator := &fakeTranslator{err: errors.New("rate limited")}
	metrics := &fallbackMetrics{}
	e := NewExpander(translator, cache.NewTTL(16, time.Minute), logger.NewTestLogger(t), metrics)

	got := e.Expand(context.Background(), "계란")

	assert.Equal(t, []string{"계란"}, got)
	assert.Equal(t, 1, metrics.fallbacks)
}

func TestExpand_FailureIsNotCached(t *testing.T) {
	translator := &fakeTranslator{err: errors.New("timeout")}
	e := NewExpander(translator, cache.NewTTL(16, time.Minute), logger.NewTestLogger(t), nil)
	ctx := context.Background()

	e.Expand(ctx, "계란")

	translator.err = nil
	translator.results = map[string]string{"계란": "egg"}
	got := e.Expand(ctx, "계란")

	assert.Equal(t, []string{"계란", "egg"}, got, "a later attempt must retry the service")
}

func TestSynonymVariants(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "contaminant term",
			query:    "살모넬라 리콜 사례",
			expected: []string{"Salmonella", "salmonella contamination", "recall", "voluntary recall", "cases", "incidents"},
		},
		{
			name:     "allergen term",
			query:    "우유 알레르겐",
			expected: []string{"milk", "dairy", "undeclared milk", "allergen", "undeclared allergen"},
		},
		{
			name:     "no domain terms",
			query:    "latest announcements",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SynonymVariants(tt.query))
		})
	}
}

func TestContainsKorean(t *testing.T) {
	assert.True(t, ContainsKorean("리콜"))
	assert.True(t, ContainsKorean("2024년 recalls"))
	assert.False(t, ContainsKorean("salmonella recall"))
	assert.False(t, ContainsKorean(""))
}
