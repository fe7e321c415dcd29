package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

const (
	DefaultMaxExtractWords = 3000
	TruncationMarker       = "...[truncated]"

	extractMaxTokens   = 400
	extractTemperature = 0.1
)

const DefaultExtractionPrompt = `You are an agricultural expert. Extract growing thresholds from the text below for crop: {{.Crop}}

Return ONLY a valid JSON object (no markdown, no explanation) with this exact structure:
{
    "moisture_min": <number or null>,
    "moisture_max": <number or null>,
    "ph_min": <number or null>,
    "ph_max": <number or null>,
    "temp_min": <number or null>,
    "temp_max": <number or null>,
    "nitrogen_min": <number or null>,
    "nitrogen_max": <number or null>,
    "phosphorus_min": <number or null>,
    "phosphorus_max": <number or null>,
    "potassium_min": <number or null>,
    "potassium_max": <number or null>,
    "humidity_min": <number or null>,
    "humidity_max": <number or null>
}

Rules:
- Use null for values not found in the text
- All numbers should be numeric (not strings)
- Do NOT include any text outside the JSON object

TEXT:
{{.Text}}`

var codeFence = regexp.MustCompile("```(?:json|JSON)?")

type ExtractionResult struct {
	Thresholds models.Thresholds `json:"thresholds"`
	Truncated  bool              `json:"truncated"`
	// Failure is empty on success, otherwise the completion error kind or
	// parse_error.
	Failure llm.ErrorKind `json:"failure,omitempty"`
	Message string        `json:"message,omitempty"`
}

type ThresholdExtractor struct {
	completer llm.Completer
	maxWords  int
	prompt    *template.Template
}

type promptData struct {
	Crop string
	Text string
}

func NewThresholdExtractor(completer llm.Completer, cfg config.KnowledgeConfig) (*ThresholdExtractor, error) {
	text := cfg.ExtractionPrompt
	if strings.TrimSpace(text) == "" {
		text = DefaultExtractionPrompt
	}
	tmpl, err := template.New("extraction").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse extraction prompt: %w", err)
	}

	maxWords := cfg.MaxExtractWords
	if maxWords <= 0 {
		maxWords = DefaultMaxExtractWords
	}
	return &ThresholdExtractor{completer: completer, maxWords: maxWords, prompt: tmpl}, nil
}

// TruncateWords keeps the first max words and appends TruncationMarker when
// anything was cut.
func TruncateWords(text string, max int) (string, bool) {
	words := strings.Fields(text)
	if len(words) <= max {
		return text, false
	}
	return strings.Join(words[:max], " ") + TruncationMarker, true
}

// Extract asks the completion service for the crop's thresholds. It never
// fails: any problem yields empty thresholds with Failure set.
func (e *ThresholdExtractor) Extract(ctx context.Context, text, crop string) ExtractionResult {
	logger := common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeExtract)

	var result ExtractionResult
	if e.completer == nil {
		result.Failure = llm.KindAuth
		result.Message = llm.ErrUnavailable.Error()
		return result
	}

	body, truncated := TruncateWords(text, e.maxWords)
	result.Truncated = truncated

	var prompt bytes.Buffer
	if err := e.prompt.Execute(&prompt, promptData{Crop: crop, Text: body}); err != nil {
		result.Failure = llm.KindOther
		result.Message = err.Error()
		logger.Error("Extraction prompt failed", zap.String("crop", crop), zap.Error(err))
		return result
	}

	raw, err := e.completer.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt.String(),
		MaxTokens:   extractMaxTokens,
		Temperature: extractTemperature,
	})
	if err != nil {
		result.Failure = llm.KindOf(err)
		result.Message = err.Error()
		logger.Warn("Threshold extraction error", zap.String("crop", crop), zap.String("kind", string(result.Failure)), zap.Error(err))
		return result
	}

	thresholds, err := ParseThresholds(raw)
	if err != nil {
		result.Failure = llm.KindParseError
		result.Message = err.Error()
		logger.Warn("JSON parse error in threshold extraction", zap.String("crop", crop), zap.Error(err))
		return result
	}

	result.Thresholds = thresholds
	logger.Info("Extracted thresholds",
		zap.String("crop", crop),
		zap.Strings("keys", thresholds.Keys()),
		zap.Bool("truncated", truncated),
	)
	return result
}

// ParseThresholds reads the JSON object in a completion response, tolerating
// code fences and stray text around it. Nulls and unknown keys are dropped.
func ParseThresholds(raw string) (models.Thresholds, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return models.Thresholds{}, fmt.Errorf("no JSON object in response")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &m); err != nil {
		return models.Thresholds{}, err
	}
	return models.ThresholdsFromMap(m), nil
}
