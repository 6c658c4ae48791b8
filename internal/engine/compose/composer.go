// internal/engine/compose/composer.go
package compose

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vviyott/recall-engine/internal/common/config"
	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/models"
)

// Generator produces the final answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIGenerator generates answers via the chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.ChatModel,
		temperature: cfg.Temperature,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", errors.NewGenerationFailedError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewGenerationFailedError(fmt.Errorf("no choices in completion"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Composer renders the final answer: LLM generation from a result-type
// specific template, with the deterministic markdown fallback when generation
// fails.
type Composer struct {
	generator Generator
	log       logger.Logger
}

func New(generator Generator, log logger.Logger) *Composer {
	return &Composer{
		generator: generator,
		log:       log.With(map[string]interface{}{"component": "composer"}),
	}
}

// Compose builds the answer for the question from the operation results. It
// always returns usable text; generation failures degrade to Fallback.
func (c *Composer) Compose(ctx context.Context, question string, results []models.ToolResult) string {
	if len(results) == 0 {
		return "I could not find relevant recall information for this question."
	}

	prompt := c.buildPrompt(question, results)
	answer, err := c.generator.Generate(ctx, composerSystemPrompt, prompt)
	if err != nil {
		c.log.WithError(err).Warn("answer generation failed, using fallback formatter", nil)
		return Fallback(results)
	}
	return answer
}

func (c *Composer) buildPrompt(question string, results []models.ToolResult) string {
	template := selectTemplate(results)

	switch template {
	case numericalAnswerTemplate:
		analysisType, result, description := numericalContext(results)
		return fmt.Sprintf(template, question, analysisType, result, description)
	case logicalAnswerTemplate:
		operation, result, description := logicalContext(results)
		return fmt.Sprintf(template, question, operation, result, description)
	default:
		return fmt.Sprintf(template, question, formatCases(collectCases(results)))
	}
}

func collectCases(results []models.ToolResult) []models.SearchCase {
	for _, r := range results {
		if r.Operation != models.OpSearch || r.Failed() {
			continue
		}
		if sr, ok := r.Result.(*models.SearchResult); ok {
			return sr.Cases
		}
	}
	return nil
}

func numericalContext(results []models.ToolResult) (analysisType, result, description string) {
	for _, r := range results {
		if r.Failed() {
			continue
		}
		switch payload := r.Result.(type) {
		case *models.CountResult:
			analysisType = "recall count"
			result = fmt.Sprintf("total: %d recalls", payload.Count)
			description = fmt.Sprintf("filters: %+v", payload.Filters)

		case *models.RankResult:
			analysisType = fmt.Sprintf("top values of %s", payload.FieldUsed)
			var lines []string
			for i, entry := range payload.Ranking {
				lines = append(lines, fmt.Sprintf("%d. %s (%d recalls)", i+1, entry.Name, entry.Count))
			}
			result = strings.Join(lines, "\n")
			description = fmt.Sprintf("%d ranked entries", len(payload.Ranking))

		case *models.TrendResult:
			analysisType = "monthly recall trend"
			var lines []string
			for _, point := range payload.Trend {
				lines = append(lines, fmt.Sprintf("%s: %d recalls", point.Month, point.Count))
			}
			result = strings.Join(lines, "\n")
			description = fmt.Sprintf("most recent %d months on %s", payload.Months, payload.DateBasis)
		}
	}
	return analysisType, result, description
}

func logicalContext(results []models.ToolResult) (operation, result, description string) {
	for _, r := range results {
		if r.Failed() {
			continue
		}
		switch payload := r.Result.(type) {
		case *models.ComparisonResult:
			operation = "period comparison"
			result = strings.Join([]string{
				fmt.Sprintf("period 1: %s (%s) - %d", payload.Period1.Label, payload.Period1.Period, payload.Period1.Total),
				fmt.Sprintf("period 2: %s (%s) - %d", payload.Period2.Label, payload.Period2.Period, payload.Period2.Total),
				fmt.Sprintf("change: %+d (%+.1f%%)", payload.Change, payload.ChangePercent),
				fmt.Sprintf("trend: %s", payload.TrendText),
			}, "\n")
			description = fmt.Sprintf("metric: %s", payload.Metric)

		case *models.ExcludeResult:
			operation = "exclusion filtering"
			result = fmt.Sprintf("%d cases after filtering", payload.TotalFound)
			description = fmt.Sprintf(
				"included %v, excluded %v; %d of %d matching records remained (exclusion rate %.1f%%)",
				payload.IncludeTerms, payload.ExcludeTerms,
				payload.Stats.FinalFiltered, payload.Stats.IncludeMatches,
				payload.Stats.ExclusionRate,
			)
		}
	}
	return operation, result, description
}
