package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// AnthropicClassifier implements Service against the Anthropic Messages API.
type AnthropicClassifier struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
	minPain   float64
}

// NewAnthropicClassifier creates the classification service client.
// minPainForTalkingPoint is surfaced in the batch prompt so openers come
// back inline for high-pain items.
func NewAnthropicClassifier(cfg *config.AnthropicConfig, minPainForTalkingPoint float64) *AnthropicClassifier {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicClassifier{
		client:    &client,
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		minPain:   minPainForTalkingPoint,
	}
}

// complete sends one prompt pair and returns the raw response text.
func (a *AnthropicClassifier) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty classification response")
	}

	content := resp.Content[0].Text

	logger.Debug("classification response",
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(content)),
	)

	return content, nil
}

// ClassifyBatch submits one batch of index-tagged headlines in a single call.
func (a *AnthropicClassifier) ClassifyBatch(ctx context.Context, companyName string, items []Headline) (map[int]models.Classification, error) {
	if len(items) == 0 {
		return map[int]models.Classification{}, nil
	}

	systemPrompt, userPrompt := buildPrompt("classify_batch.tmpl", map[string]any{
		"CompanyName":            companyName,
		"Items":                  items,
		"MinPainForTalkingPoint": a.minPain,
	})
	if userPrompt == "" {
		return nil, fmt.Errorf("failed to build batch classification prompt")
	}

	content, err := a.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return parseBatchResponse(content, len(items)), nil
}

// ClassifyOne judges a single headline with a dedicated call.
func (a *AnthropicClassifier) ClassifyOne(ctx context.Context, companyName string, item Headline) (models.Classification, error) {
	systemPrompt, userPrompt := buildPrompt("classify_single.tmpl", map[string]any{
		"CompanyName": companyName,
		"Title":       item.Title,
		"Source":      item.Source,
	})
	if userPrompt == "" {
		return models.Classification{}, fmt.Errorf("failed to build classification prompt")
	}

	content, err := a.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return models.Classification{}, err
	}

	c, ok := parseSingleResponse(content)
	if !ok {
		return models.Classification{}, fmt.Errorf("unusable classification response")
	}
	return c, nil
}

// GenerateTalkingPoint produces an outreach opener for a high-pain signal.
func (a *AnthropicClassifier) GenerateTalkingPoint(ctx context.Context, companyName string, c models.Classification) (string, error) {
	systemPrompt, userPrompt := buildPrompt("talking_point.tmpl", map[string]any{
		"CompanyName": companyName,
		"Summary":     c.Summary,
		"Category":    string(c.Category),
	})
	if userPrompt == "" {
		return "", fmt.Errorf("failed to build talking point prompt")
	}

	content, err := a.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}
