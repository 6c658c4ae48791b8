// internal/engine/translate/translator.go

// Package translate expands bilingual query terms: a static Korean/English
// synonym table for the domain vocabulary plus an LLM-backed translator for
// everything the table does not cover.
package translate

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vviyott/recall-engine/internal/common/config"
)

// Translator turns Korean text into English. Implementations must be safe for
// concurrent use.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

const translationPrompt = `Translate the following Korean text to English.
Use standard FDA terminology for food, recall and allergen terms.
Reply with the translation only.

Korean: %TEXT%
English:`

// OpenAITranslator translates via the chat completions API.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

func NewOpenAITranslator(cfg config.OpenAIConfig) *OpenAITranslator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ChatModel,
	}
}

func (t *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: strings.ReplaceAll(translationPrompt, "%TEXT%", text),
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
