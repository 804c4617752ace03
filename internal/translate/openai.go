package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/signspeak/signspeak/internal/lang"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAITranslator translates through the OpenAI chat completion API
// instead of the prediction backend.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates a translator using apiKey.
func NewOpenAITranslator(apiKey, model string) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not found")
	}
	return NewOpenAITranslatorWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// NewOpenAITranslatorWithConfig creates a translator from a client config,
// which allows pointing it at a compatible endpoint.
func NewOpenAITranslatorWithConfig(cfg openai.ClientConfig, model string) *OpenAITranslator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Translate asks the model for a bare translation of text.
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := validate(text, targetLang); err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You translate short phrases produced by a sign language recognizer. " +
					"Respond with only the translation, nothing else.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the English text %q to %s (%s).",
					text, lang.DisplayName(targetLang), targetLang),
			},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", newError(ErrorCodeProvider, "OpenAI API error", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoTranslation
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", ErrNoTranslation
	}
	return translation, nil
}

var _ Translator = (*OpenAITranslator)(nil)
