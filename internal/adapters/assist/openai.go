// Package assist reduces an item description to a short search query with an
// OpenAI-compatible chat model.
package assist

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"precificador/internal/logging"
)

const systemPrompt = `Você recebe a descrição de um item de licitação pública.
Responda apenas com uma consulta de busca curta: o substantivo principal seguido de no máximo três qualificadores essenciais.
Não inclua marcas, preços, prazos, garantias nem referências ao edital. Não invente características ausentes da descrição.`

const maxQueryWords = 6

type OpenAIAssistant struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIAssistant returns nil when apiKey is empty so callers fall back to
// the deterministic tokenizer.
func NewOpenAIAssistant(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIAssistant {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey)), option.WithMaxRetries(0)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	if strings.TrimSpace(model) == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIAssistant{
		client: openai.NewClient(opts...),
		model:  strings.TrimSpace(model),
		logger: logging.OrNop(logger).Named("assist"),
	}
}

// SimplifyQuery honours ctx's deadline; the caller bounds it.
func (a *OpenAIAssistant) SimplifyQuery(ctx context.Context, description string) (string, error) {
	if a == nil {
		return "", errors.New("assistant not configured")
	}
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(description),
		},
		Temperature:         openai.Float(0),
		MaxCompletionTokens: openai.Int(32),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant returned no choices")
	}
	q := cleanQuery(resp.Choices[0].Message.Content)
	if q == "" {
		return "", errors.New("assistant returned an empty query")
	}
	a.logger.Debug("assist.query", zap.String("query", q), zap.Int64("tokens", resp.Usage.TotalTokens))
	return q, nil
}

// cleanQuery keeps the first line, drops quotes and caps the word count.
func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'`. ")
	words := strings.Fields(s)
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}
