package classifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
	"github.com/salesintel/tracker/pkg/templates"
)

var globalTemplates templates.Renderer

// SetTemplateRenderer sets the global template renderer (called from main.go
// at startup).
func SetTemplateRenderer(renderer templates.Renderer) {
	globalTemplates = renderer
}

// buildPrompt renders a template and splits it into system and user halves.
func buildPrompt(name string, data map[string]any) (systemPrompt, userPrompt string) {
	if globalTemplates == nil {
		logger.Error("templates not loaded - cannot build prompts")
		return "", ""
	}

	output, err := globalTemplates.ExecuteTemplate(name, data)
	if err != nil {
		logger.Error("failed to render template",
			zap.String("template", name),
			zap.Error(err),
		)
		return "", ""
	}

	return SplitPrompt(output)
}

// SplitPrompt splits template output into system and user prompts.
func SplitPrompt(output string) (systemPrompt, userPrompt string) {
	const separator = "=== USER PROMPT ==="
	idx := strings.Index(output, separator)
	if idx == -1 {
		return "", output
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(separator):])
	return systemPrompt, userPrompt
}

// === PARSING FUNCTIONS ===

// rawJudgment mirrors one entry of the service's JSON response. Score fields
// are pointers so missing and zero are distinguishable.
type rawJudgment struct {
	Index          int      `json:"index"`
	Summary        string   `json:"summary"`
	RelevanceScore *float64 `json:"relevance_score"`
	Category       string   `json:"category"`
	PainScore      *float64 `json:"pain_score"`
	TalkingPoint   string   `json:"talking_point"`
}

// toClassification normalizes a raw judgment. Missing relevance defaults to
// 0.5; a missing pain score makes the judgment unusable.
func (r *rawJudgment) toClassification() (models.Classification, bool) {
	if r.PainScore == nil {
		return models.Classification{}, false
	}

	relevance := 0.5
	if r.RelevanceScore != nil {
		relevance = *r.RelevanceScore
	}

	return models.Classification{
		Summary:        r.Summary,
		RelevanceScore: models.ClampScore(relevance),
		Category:       models.NormalizeCategory(r.Category),
		PainScore:      models.ClampScore(*r.PainScore),
		TalkingPoint:   strings.TrimSpace(r.TalkingPoint),
	}, true
}

// parseBatchResponse parses a batch classification response keyed by index.
// Entries with out-of-range indexes are discarded. An unparseable response
// yields an empty map, never an error.
func parseBatchResponse(content string, batchSize int) map[int]models.Classification {
	jsonStr := extractJSON(content)

	var judgments []rawJudgment
	if err := json.Unmarshal([]byte(jsonStr), &judgments); err != nil {
		logger.Warn("failed to parse batch classification response",
			zap.Error(err),
		)
		return map[int]models.Classification{}
	}

	results := make(map[int]models.Classification, len(judgments))
	for i := range judgments {
		j := &judgments[i]
		if j.Index < 0 || j.Index >= batchSize {
			logger.Warn("discarding classification with out-of-range index",
				zap.Int("index", j.Index),
				zap.Int("batch_size", batchSize),
			)
			continue
		}
		if c, ok := j.toClassification(); ok {
			results[j.Index] = c
		}
	}

	return results
}

// parseSingleResponse parses a per-item classification response.
func parseSingleResponse(content string) (models.Classification, bool) {
	jsonStr := extractJSON(content)

	var judgment rawJudgment
	if err := json.Unmarshal([]byte(jsonStr), &judgment); err != nil {
		return models.Classification{}, false
	}

	return judgment.toClassification()
}

// === UTILITY FUNCTIONS ===

var codeBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// extractJSON extracts JSON from text that might be wrapped in markdown or
// surrounding prose.
func extractJSON(text string) string {
	if matches := codeBlockRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	var start int
	var endChar string

	switch {
	case startArr >= 0 && (startObj < 0 || startArr < startObj):
		start = startArr
		endChar = "]"
	case startObj >= 0:
		start = startObj
		endChar = "}"
	default:
		return strings.TrimSpace(text)
	}

	end := strings.LastIndex(text, endChar)
	if end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}
