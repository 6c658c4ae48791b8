// internal/engine/orchestrator/engine_test.go
package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/cache"
	"github.com/vviyott/recall-engine/internal/engine/dates"
	"github.com/vviyott/recall-engine/internal/engine/hint"
	"github.com/vviyott/recall-engine/internal/engine/selector"
	"github.com/vviyott/recall-engine/internal/models"
)

// ==========================
// 1. Test doubles
// ==========================

type fakeSelector struct {
	decision *selector.Decision
	err      error
}

func (f *fakeSelector) Select(_ context.Context, _ string, _ models.Hint, _ []models.ChatTurn) (*selector.Decision, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

type fakeExecutor struct {
	calls   atomic.Int32
	results map[models.Operation]interface{}
	err     error
	delay   time.Duration
}

func (f *fakeExecutor) Execute(_ context.Context, call models.ToolCall) (interface{}, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[call.Operation], nil
}

type fakeSearcher struct {
	calls     atomic.Int32
	lastQuery string
	lastLimit int
	result    *models.SearchResult
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) (*models.SearchResult, error) {
	f.calls.Add(1)
	f.lastQuery = query
	f.lastLimit = limit
	return f.result, nil
}

type fakeComposer struct {
	calls atomic.Int32
	text  string
}

func (f *fakeComposer) Compose(_ context.Context, _ string, _ []models.ToolResult) string {
	f.calls.Add(1)
	return f.text
}

type fakeMetrics struct {
	questions int
	cacheHits int
}

func (m *fakeMetrics) RecordQuestion(_ context.Context, _ string) { m.questions++ }

func (m *fakeMetrics) RecordResolveDuration(_ context.Context, _ time.Duration, _ string) {}

func (m *fakeMetrics) RecordCacheHit(_ context.Context) { m.cacheHits++ }

type engineFixture struct {
	engine   *Engine
	selector *fakeSelector
	executor *fakeExecutor
	searcher *fakeSearcher
	composer *fakeComposer
	metrics  *fakeMetrics
}

func newFixture(t *testing.T, sel *fakeSelector) *engineFixture {
	t.Helper()

	log := logger.NewTestLogger(t)
	fx := &engineFixture{
		selector: sel,
		executor: &fakeExecutor{results: map[models.Operation]interface{}{}},
		searcher: &fakeSearcher{result: &models.SearchResult{Cases: []models.SearchCase{}}},
		composer: &fakeComposer{text: "composed answer"},
		metrics:  &fakeMetrics{},
	}
	fx.engine = New(Config{
		Classifier:       hint.NewClassifier(dates.NewResolver(2025, log, nil)),
		Selector:         fx.selector,
		Catalog:          fx.executor,
		Search:           fx.searcher,
		Composer:         fx.composer,
		AnswerCache:      cache.NewTTL(16, time.Minute),
		DefaultSearchTop: 5,
		Logger:           log,
		Metrics:          fx.metrics,
	})
	return fx
}

func countDecision(args map[string]interface{}) *selector.Decision {
	return &selector.Decision{Calls: []models.ToolCall{{Operation: models.OpCount, Args: args}}}
}

// ==========================
// 2. Resolution paths
// ==========================

func TestResolve_OperationBasedAnswer(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: countDecision(map[string]interface{}{"year": "last year"})})
	fx.executor.results[models.OpCount] = &models.CountResult{Count: 240}

	answer, err := fx.engine.Resolve(context.Background(), "How many recalls last year?", nil)

	require.NoError(t, err)
	assert.Equal(t, "composed answer", answer.Text)
	assert.Equal(t, models.ProcessingOperations, answer.ProcessingType)
	require.Len(t, answer.OperationCalls, 1)
	assert.Equal(t, models.OpCount, answer.OperationCalls[0].Operation)
	assert.False(t, answer.OperationCalls[0].Failed())
	assert.Equal(t, 1, fx.metrics.questions)
}

func TestResolve_CacheIdempotence(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: countDecision(nil)})
	fx.executor.results[models.OpCount] = &models.CountResult{Count: 7}
	ctx := context.Background()

	first, err := fx.engine.Resolve(ctx, "2024년 리콜 몇 건?", nil)
	require.NoError(t, err)

	// Case, punctuation and spacing differences hit the same entry.
	second, err := fx.engine.Resolve(ctx, "  2024년   리콜 몇 건", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, int32(1), fx.executor.calls.Load(), "second resolution must not re-run operations")
	assert.Equal(t, 1, fx.metrics.cacheHits)
}

func TestResolve_DirectAnswer(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: &selector.Decision{DirectAnswer: "리콜은 회수 절차입니다."}})

	answer, err := fx.engine.Resolve(context.Background(), "리콜이 뭐야?", nil)

	require.NoError(t, err)
	assert.Equal(t, models.ProcessingDirectAnswer, answer.ProcessingType)
	assert.Equal(t, "리콜은 회수 절차입니다.", answer.Text)
	assert.Empty(t, answer.OperationCalls)
	assert.Zero(t, fx.composer.calls.Load())
}

func TestResolve_SelectorFailureFallsBackToRules(t *testing.T) {
	fx := newFixture(t, &fakeSelector{err: errors.NewDecisionServiceFailedError(assert.AnError)})
	fx.executor.results[models.OpCount] = &models.CountResult{Count: 3}

	// The hint classifier recommends count; the rule selector turns it into
	// the actual call.
	answer, err := fx.engine.Resolve(context.Background(), "2024년 리콜 총 몇 건?", nil)

	require.NoError(t, err)
	assert.Equal(t, models.ProcessingOperations, answer.ProcessingType)
	assert.Equal(t, int32(1), fx.executor.calls.Load())
	require.Len(t, answer.OperationCalls, 1)
	assert.Equal(t, models.OpCount, answer.OperationCalls[0].Operation)
}

func TestResolve_SearchCallsRoutedToSearcher(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: &selector.Decision{Calls: []models.ToolCall{{
		Operation: models.OpSearch,
		Args:      map[string]interface{}{"query": "살모넬라 사례", "limit": 3.0},
	}}}})

	_, err := fx.engine.Resolve(context.Background(), "살모넬라 사례 알려줘", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(1), fx.searcher.calls.Load())
	assert.Equal(t, "살모넬라 사례", fx.searcher.lastQuery)
	assert.Equal(t, 3, fx.searcher.lastLimit)
	assert.Zero(t, fx.executor.calls.Load())
}

func TestResolve_SearchLimitDefaulted(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: &selector.Decision{Calls: []models.ToolCall{{
		Operation: models.OpSearch,
		Args:      map[string]interface{}{"query": "recall cases"},
	}}}})

	_, err := fx.engine.Resolve(context.Background(), "show recall cases", nil)

	require.NoError(t, err)
	assert.Equal(t, 5, fx.searcher.lastLimit)
}

// ==========================
// 3. Failure handling
// ==========================

func TestResolve_PartialFailureKeepsSiblingResults(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: &selector.Decision{Calls: []models.ToolCall{
		{Operation: models.OpSearch, Args: map[string]interface{}{"query": "cases"}},
		{Operation: models.OpCount, Args: nil},
	}}})
	fx.executor.err = errors.NewQueryExecutionFailedError("count_recalls", assert.AnError)

	answer, err := fx.engine.Resolve(context.Background(), "mixed outcome question", nil)

	require.NoError(t, err)
	assert.Equal(t, models.ProcessingOperations, answer.ProcessingType)
	require.Len(t, answer.OperationCalls, 2)
	assert.False(t, answer.OperationCalls[0].Failed())
	assert.True(t, answer.OperationCalls[1].Failed())
	assert.Contains(t, answer.OperationCalls[1].Err, "QUERY_EXECUTION_FAILED")
}

func TestResolve_AllFailedMarksErrorAndSkipsCache(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: countDecision(nil)})
	fx.executor.err = errors.NewStoreUnavailableError(assert.AnError)
	ctx := context.Background()

	answer, err := fx.engine.Resolve(ctx, "작년 리콜 몇 건?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingError, answer.ProcessingType)

	// Error outcomes are not cached: the next attempt re-runs the operation.
	_, err = fx.engine.Resolve(ctx, "작년 리콜 몇 건?", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fx.executor.calls.Load())
}

func TestResolve_ResultsKeepCallOrder(t *testing.T) {
	fx := newFixture(t, &fakeSelector{decision: &selector.Decision{Calls: []models.ToolCall{
		{Operation: models.OpCount},
		{Operation: models.OpRank},
		{Operation: models.OpTrend},
	}}})
	fx.executor.delay = 5 * time.Millisecond
	fx.executor.results = map[models.Operation]interface{}{
		models.OpCount: &models.CountResult{Count: 1},
		models.OpRank:  &models.RankResult{},
		models.OpTrend: &models.TrendResult{},
	}

	answer, err := fx.engine.Resolve(context.Background(), "다각도 분석 질문", nil)

	require.NoError(t, err)
	require.Len(t, answer.OperationCalls, 3)
	assert.Equal(t, models.OpCount, answer.OperationCalls[0].Operation)
	assert.Equal(t, models.OpRank, answer.OperationCalls[1].Operation)
	assert.Equal(t, models.OpTrend, answer.OperationCalls[2].Operation)
}

// ==========================
// 4. Cache key
// ==========================

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected string
	}{
		{"lowercased", "How Many Recalls?", "how_many_recalls"},
		{"punctuation stripped", "recalls, last year!!", "recalls_last_year"},
		{"whitespace collapsed", "  작년   리콜  몇 건  ", "작년_리콜_몇_건"},
		{"korean preserved", "살모넬라 사례?", "살모넬라_사례"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CacheKey(tt.question))
		})
	}
}

func TestCacheKey_EquivalentQuestionsCollide(t *testing.T) {
	assert.Equal(t, CacheKey("작년 리콜 몇 건?"), CacheKey("작년 리콜 몇 건"))
	assert.Equal(t, CacheKey("How many recalls?"), CacheKey("how MANY recalls"))
	assert.NotEqual(t, CacheKey("작년 리콜"), CacheKey("올해 리콜"))
}
