// internal/engine/orchestrator/engine.go

// Package orchestrator runs the full question pipeline: answer cache lookup,
// hint classification, operation selection, concurrent operation execution
// and answer composition.
package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/cache"
	"github.com/vviyott/recall-engine/internal/engine/hint"
	"github.com/vviyott/recall-engine/internal/engine/selector"
	"github.com/vviyott/recall-engine/internal/models"
)

// ==========================
// 1. Collaborator contracts
// ==========================

// Executor runs one structured-store operation.
type Executor interface {
	Execute(ctx context.Context, call models.ToolCall) (interface{}, error)
}

// Searcher runs the semantic search operation.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*models.SearchResult, error)
}

// Composer renders the final answer text.
type Composer interface {
	Compose(ctx context.Context, question string, results []models.ToolResult) string
}

// Metrics is the engine's observability hook.
type Metrics interface {
	RecordQuestion(ctx context.Context, processingType string)
	RecordResolveDuration(ctx context.Context, duration time.Duration, processingType string)
	RecordCacheHit(ctx context.Context)
}

// ==========================
// 2. Engine
// ==========================

// Engine resolves natural-language questions about the recall dataset.
type Engine struct {
	classifier *hint.Classifier
	selector   selector.Selector
	fallback   selector.Selector
	catalog    Executor
	search     Searcher
	composer   Composer

	answerCache      cache.Store
	defaultSearchTop int

	log     logger.Logger
	metrics Metrics
}

type Config struct {
	Classifier       *hint.Classifier
	Selector         selector.Selector
	Catalog          Executor
	Search           Searcher
	Composer         Composer
	AnswerCache      cache.Store
	DefaultSearchTop int
	Logger           logger.Logger
	Metrics          Metrics
}

func New(cfg Config) *Engine {
	top := cfg.DefaultSearchTop
	if top <= 0 {
		top = 5
	}
	return &Engine{
		classifier:       cfg.Classifier,
		selector:         cfg.Selector,
		fallback:         selector.NewRuleSelector(),
		catalog:          cfg.Catalog,
		search:           cfg.Search,
		composer:         cfg.Composer,
		answerCache:      cfg.AnswerCache,
		defaultSearchTop: top,
		log:              cfg.Logger.With(map[string]interface{}{"component": "orchestrator"}),
		metrics:          cfg.Metrics,
	}
}

// Resolve answers one question. Identical questions (modulo case, punctuation
// and spacing) are served from the answer cache; error outcomes are never
// cached.
func (e *Engine) Resolve(ctx context.Context, question string, history []models.ChatTurn) (*models.Answer, error) {
	start := time.Now()

	key := CacheKey(question)
	if cached, ok := e.answerCache.Get(ctx, key); ok {
		var answer models.Answer
		if err := json.Unmarshal([]byte(cached), &answer); err == nil {
			e.log.Debug("answer served from cache", map[string]interface{}{"key": key})
			if e.metrics != nil {
				e.metrics.RecordCacheHit(ctx)
			}
			return &answer, nil
		}
		// A corrupt entry is recomputed and overwritten below.
	}

	h := e.classifier.Classify(question)

	decision, err := e.selector.Select(ctx, question, h, history)
	if err != nil {
		e.log.WithError(err).Warn("decision service failed, using rule-based selection", map[string]interface{}{
			"recommended": h.Recommended,
		})
		decision, err = e.fallback.Select(ctx, question, h, history)
		if err != nil {
			return nil, err
		}
	}

	var answer *models.Answer
	if len(decision.Calls) == 0 {
		answer = &models.Answer{
			Text:           decision.DirectAnswer,
			OperationCalls: []models.ToolResult{},
			ProcessingType: models.ProcessingDirectAnswer,
		}
	} else {
		results := e.executeCalls(ctx, decision.Calls)
		answer = &models.Answer{
			Text:           e.composer.Compose(ctx, question, results),
			OperationCalls: results,
			ProcessingType: models.ProcessingOperations,
		}
		if allFailed(results) {
			answer.ProcessingType = models.ProcessingError
		}
	}

	if answer.ProcessingType != models.ProcessingError {
		if encoded, err := json.Marshal(answer); err == nil {
			e.answerCache.Put(ctx, key, string(encoded))
		}
	}

	if e.metrics != nil {
		e.metrics.RecordQuestion(ctx, string(answer.ProcessingType))
		e.metrics.RecordResolveDuration(ctx, time.Since(start), string(answer.ProcessingType))
	}

	e.log.Info("question resolved", map[string]interface{}{
		"processing_type": answer.ProcessingType,
		"operations":      len(answer.OperationCalls),
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return answer, nil
}

// executeCalls runs the selected operations concurrently and returns their
// results in call order. A failed call records its error and never aborts its
// siblings.
func (e *Engine) executeCalls(ctx context.Context, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call models.ToolCall) {
			defer wg.Done()

			result := models.ToolResult{Operation: call.Operation, Args: call.Args}

			payload, err := e.executeCall(ctx, call)
			if err != nil {
				e.log.WithError(err).Warn("operation failed", map[string]interface{}{
					"operation": call.Operation,
				})
				result.Err = err.Error()
			} else {
				result.Result = payload
			}
			results[i] = result
		}(i, call)
	}
	wg.Wait()

	return results
}

func (e *Engine) executeCall(ctx context.Context, call models.ToolCall) (interface{}, error) {
	if call.Operation == models.OpSearch {
		query, _ := call.Args["query"].(string)
		limit := e.defaultSearchTop
		if n, ok := call.Args["limit"].(float64); ok && n > 0 {
			limit = int(n)
		}
		return e.search.Search(ctx, query, limit)
	}
	return e.catalog.Execute(ctx, call)
}

func allFailed(results []models.ToolResult) bool {
	for _, r := range results {
		if !r.Failed() {
			return false
		}
	}
	return len(results) > 0
}

// ==========================
// 3. Cache key normalization
// ==========================

// CacheKey normalizes a question into its cache key: lowercased, punctuation
// stripped, whitespace runs collapsed to single underscores. Letters of any
// script survive, so Korean questions key correctly.
func CacheKey(question string) string {
	lowered := strings.ToLower(strings.TrimSpace(question))

	var sb strings.Builder
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), "_")
}
