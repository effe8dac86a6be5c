package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"saved-places-backend/internal/models"
)

// CategoryClassifier suggests a category for an ingested place from its
// title and notes. Classification is best-effort enrichment: any failure is
// downgraded to the "Other" default by the caller, never surfaced.
type CategoryClassifier struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewCategoryClassifier creates a classifier from the environment. Returns
// nil when OPENAI_API_KEY is unset; callers treat a nil classifier as
// "no suggestion available".
func NewCategoryClassifier() *CategoryClassifier {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}

	return &CategoryClassifier{
		client:      openai.NewClient(apiKey),
		model:       "gpt-4o-mini",
		temperature: 0.1,
	}
}

// SuggestCategory asks the model for the best-fitting category. The reply
// is validated against the known category list; anything unexpected is an
// error so the caller falls back to the default.
func (c *CategoryClassifier) SuggestCategory(ctx context.Context, title, notes string) (string, error) {
	if title == "" && notes == "" {
		return "", fmt.Errorf("nothing to classify")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   10,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.buildSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Title: %s\nNotes: %s", title, notes),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}

	category := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !models.ValidateCategory(category) {
		return "", fmt.Errorf("unexpected category from model: %q", category)
	}

	return category, nil
}

func (c *CategoryClassifier) buildSystemPrompt() string {
	return fmt.Sprintf(
		"You categorize saved places. Reply with exactly one of: %s. Reply with the category name only.",
		strings.Join(models.Categories(), ", "),
	)
}
