// internal/engine/selector/openai.go
package selector

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vviyott/recall-engine/internal/common/config"
	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/models"
)

const systemPromptTemplate = `You are an FDA recall data analyst. Analyze the user's question and call
the operations that produce the exact figures needed for the answer.

Reference dates:
- current year: %d
- last year (작년): %d
- year before last (재작년): %d

Date rule: pass relative period words exactly as the user wrote them.
"작년" stays "작년", "올해" stays "올해". Never rewrite them into numbers
yourself; the engine resolves them.

Operation guide:
1. Figures and statistics (structured store):
   - "total count", "몇 건" -> count_recalls
   - "top N", "순위", "가장 많은" -> rank_by_field
   - "monthly trend", "증가/감소" -> monthly_trend
   - "작년과 올해", "2023 vs 2024" -> compare_periods
2. Case lookups (semantic store):
   - "사례 알려줘", "which products", "구체적인 내용" -> search_recall_cases
3. Exclusion filtering:
   - "A에서 B를 제외한", "A 빼고" -> filter_exclude_conditions

Field mapping: 회사/기업 -> company, 브랜드/상표 -> brand,
제품/식품 -> product_type, 리콜사유/원인 -> recall_reason,
상세사유 -> recall_reason_detail. Food categories like 계란, 우유 or
견과류 belong in the keyword parameter, which searches every field.

The questions may be Korean while the data is English; the engine translates
terms automatically, so pass them unchanged.`

// OpenAISelector asks the decision model to pick operations via tool calling.
type OpenAISelector struct {
	client        *openai.Client
	model         string
	anchorYear    int
	historyWindow int
	log           logger.Logger
}

func NewOpenAISelector(cfg config.OpenAIConfig, anchorYear, historyWindow int, log logger.Logger) *OpenAISelector {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAISelector{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.SelectorModel,
		anchorYear:    anchorYear,
		historyWindow: historyWindow,
		log:           log.With(map[string]interface{}{"component": "selector"}),
	}
}

func (s *OpenAISelector) Select(ctx context.Context, question string, h models.Hint, history []models.ChatTurn) (*Decision, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(systemPromptTemplate,
				s.anchorYear, s.anchorYear-1, s.anchorYear-2),
		},
	}

	for _, turn := range trimHistory(history, s.historyWindow) {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	content := question
	if h.Advisory != "" {
		content = question + "\n\n[hint] " + h.Advisory
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages:    messages,
		Tools:       toolDefinitions(),
	})
	if err != nil {
		return nil, errors.NewDecisionServiceFailedError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewDecisionServiceFailedError(fmt.Errorf("no choices in completion"))
	}

	message := resp.Choices[0].Message
	if len(message.ToolCalls) == 0 {
		return &Decision{DirectAnswer: message.Content}, nil
	}

	decision := &Decision{}
	for _, tc := range message.ToolCalls {
		call := models.ToolCall{Operation: models.Operation(tc.Function.Name)}

		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &call.Args); err != nil {
				s.log.WithError(err).Warn("dropping tool call with unparseable arguments", map[string]interface{}{
					"operation": tc.Function.Name,
				})
				continue
			}
		}

		if err := ValidateArgs(call); err != nil {
			s.log.WithError(err).Warn("dropping tool call with invalid arguments", map[string]interface{}{
				"operation": tc.Function.Name,
				"arguments": tc.Function.Arguments,
			})
			continue
		}

		decision.Calls = append(decision.Calls, call)
	}

	if len(decision.Calls) == 0 {
		decision.DirectAnswer = message.Content
	}
	return decision, nil
}

func trimHistory(history []models.ChatTurn, window int) []models.ChatTurn {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}

func toolDefinitions() []openai.Tool {
	tools := make([]openai.Tool, 0, len(operationSchemas))
	for _, op := range models.Operations() {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:       string(op),
				Parameters: json.RawMessage(operationSchemas[op]),
			},
		})
	}
	return tools
}
