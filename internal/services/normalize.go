package services

import (
	"fmt"

	"github.com/visaprep-ai/backend/internal/models"
)

// The evaluation engine is free to return either the short dimension names or
// the *_score forms; this table maps the short forms onto the internal schema.
var scoreFieldAliases = map[string]string{
	"fluency":          "fluency_score",
	"confidence":       "confidence_score",
	"content_accuracy": "content_accuracy_score",
	"clarity":          "clarity_score",
	"response_time":    "response_time_score",
}

var requiredScoreFields = []string{
	"fluency_score",
	"confidence_score",
	"content_accuracy_score",
	"clarity_score",
	"response_time_score",
}

// NormalizeEvaluation renames aliased score keys and builds the internal
// evaluation record. All five scores must be present after renaming.
func NormalizeEvaluation(raw map[string]any) (models.AnswerEvaluation, error) {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	for alias, canonical := range scoreFieldAliases {
		if v, ok := m[alias]; ok {
			if _, exists := m[canonical]; !exists {
				m[canonical] = v
			}
			delete(m, alias)
		}
	}

	scores := make(map[string]int, len(requiredScoreFields))
	for _, field := range requiredScoreFields {
		v, ok := m[field]
		if !ok {
			return models.AnswerEvaluation{}, fmt.Errorf("evaluation missing field %q", field)
		}
		n, ok := toInt(v)
		if !ok {
			return models.AnswerEvaluation{}, fmt.Errorf("evaluation field %q is not a number", field)
		}
		scores[field] = clampScore(n)
	}

	feedback, _ := m["feedback"].(string)

	return models.AnswerEvaluation{
		FluencyScore:         scores["fluency_score"],
		ConfidenceScore:      scores["confidence_score"],
		ContentAccuracyScore: scores["content_accuracy_score"],
		ClarityScore:         scores["clarity_score"],
		ResponseTimeScore:    scores["response_time_score"],
		Feedback:             feedback,
	}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
