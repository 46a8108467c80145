package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/utils"
)

// Field keys shared by the engine, the CLI and the explainer.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldQuery    = "query"
	FieldTopK     = "top_k"
	FieldSource   = "catalog_source"

	maxQueryLogLength = 80
	embeddedSource    = "embedded"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields turns key/value pairs into zap fields. Both sides are trimmed and
// pairs with a blank side are skipped.
func StringFields(fields ...StringField) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, zap.String(key, value))
	}
	return out
}

// WithFields returns logger with fields attached. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	switch {
	case logger == nil:
		return zap.NewNop()
	case len(fields) == 0:
		return logger
	default:
		return logger.With(fields...)
	}
}

// CommonFields names the AI provider and model behind an explanation.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields is WithFields with CommonFields.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// RankingFields describes a recommendation request. Long queries are truncated.
func RankingFields(query string, topK int) []zap.Field {
	fields := StringFields(StringField{Key: FieldQuery, Value: utils.TruncateForLog(query, maxQueryLogLength)})
	return append(fields, zap.Int(FieldTopK, topK))
}

// CatalogFields names where the catalog came from. An empty source is the embedded sample.
func CatalogFields(source string) []zap.Field {
	if strings.TrimSpace(source) == "" {
		source = embeddedSource
	}
	return StringFields(StringField{Key: FieldSource, Value: source})
}
