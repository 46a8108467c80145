package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/ranker"
	"github.com/spigell/assessment-recommender/internal/utils"
)

const (
	defaultMaxLogLength = 200
	noRecommendation    = "No recommendation available for this role."
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var systemPrompt string

// Explainer asks Gemini to comment on a ranking.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

type resultPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Skills      string  `json:"skills,omitempty"`
	Confidence  float64 `json:"confidence"`
	Label       string  `json:"label"`
	Fallback    bool    `json:"fallback,omitempty"`
}

func (e *Explainer) Explain(ctx context.Context, jobRole string, rec *ranker.Recommendation) (*ai.Explanation, error) {
	jobRole = strings.TrimSpace(jobRole)
	if jobRole == "" {
		return nil, fmt.Errorf("job role is required")
	}
	if rec.Empty() {
		return &ai.Explanation{Summary: noRecommendation}, nil
	}

	payload := make([]resultPayload, 0, len(rec.Results))
	for _, r := range rec.Results {
		payload = append(payload, resultPayload{
			Name:        r.Assessment.Name,
			Category:    r.Assessment.Category,
			Description: r.Assessment.Description,
			Skills:      r.Assessment.Skills,
			Confidence:  r.Confidence,
			Label:       r.Label,
			Fallback:    r.Fallback,
		})
	}

	resultsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results payload: %w", err)
	}

	message := buildMessage(jobRole, string(resultsJSON))

	e.logger.Debug("gemini explain request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini explain response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	explanation, err := parseResponse(raw, rec.Names())
	if err != nil {
		return nil, err
	}
	explanation.Raw = raw
	return explanation, nil
}

func buildMessage(jobRole, resultsJSON string) string {
	return "Job role:\n" + jobRole + "\n\nRecommended assessments, best first:\n" + resultsJSON + "\n\nJSON Response:"
}

// parseResponse decodes the model reply. Notes for assessments that were not recommended are dropped.
func parseResponse(raw string, names []string) (*ai.Explanation, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	summary := coerceString(data["summary"])
	if summary == "" {
		return nil, fmt.Errorf("parse gemini response: summary is missing")
	}

	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}

	notes := make(map[string]string)
	if rawNotes, ok := data["notes"].(map[string]any); ok {
		for name, v := range rawNotes {
			if _, ok := known[name]; !ok {
				continue
			}
			if note := coerceString(v); note != "" {
				notes[name] = note
			}
		}
	}

	return &ai.Explanation{Summary: summary, Notes: notes}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
