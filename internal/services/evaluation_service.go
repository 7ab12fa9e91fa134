package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/visaprep-ai/backend/internal/models"
	"github.com/visaprep-ai/backend/internal/providers/llm"
)

// EvaluationService scores answers and writes the closing narrative. Upstream
// failures never escape: every path degrades to deterministic defaults, so
// callers get a usable evaluation unconditionally.
type EvaluationService interface {
	EvaluateAnswer(ctx context.Context, question, answer string, visaType models.VisaType) map[string]any
	GenerateFinalNarrative(ctx context.Context, questions, answers []string, visaType models.VisaType) FinalNarrative
}

// FinalNarrative is the LLM-written part of the final evaluation; the
// per-dimension averages are computed by the state machine.
type FinalNarrative struct {
	OverallScore    float64
	FeedbackSummary string
	Strengths       []string
	AreasToImprove  []string
}

type evaluationService struct {
	llm llm.Provider
	log *logrus.Logger
}

func NewEvaluationService(provider llm.Provider, log *logrus.Logger) EvaluationService {
	return &evaluationService{llm: provider, log: log}
}

const minAnswerChars = 10

func (s *evaluationService) EvaluateAnswer(ctx context.Context, question, answer string, visaType models.VisaType) map[string]any {
	if len(strings.TrimSpace(answer)) < minAnswerChars {
		s.log.Warn("answer too short, returning low scores")
		return map[string]any{
			"fluency_score":          30,
			"confidence_score":       30,
			"content_accuracy_score": 20,
			"clarity_score":          25,
			"response_time_score":    40,
			"overall_score":          30,
			"feedback":               "Your answer was too short. Try to provide more detailed responses to interview questions.",
		}
	}

	prompt := fmt.Sprintf(`You are evaluating a response to a %s visa interview question.

Question: %q
Answer: %q

Evaluate this response on the following criteria on a scale of 1-100:

1. Fluency (how smoothly and naturally the response flows)
2. Confidence (how confident the applicant appears based on word choice)
3. Content Accuracy (how well the response addresses the question)
4. Clarity (how clear and understandable the response is)
5. Response Time (how quickly and effectively the candidate responded)

Also provide brief, constructive feedback on how the answer could be improved.

Respond with a single JSON object with the keys fluency_score, confidence_score,
content_accuracy_score, clarity_score, response_time_score, overall_score, and
feedback. Scores are integers from 0 to 100.`, visaType, question, answer)

	out, err := s.llm.Complete(ctx, "You are a helpful visa interview evaluator assistant.", prompt)
	if err != nil {
		s.log.WithError(err).Error("answer evaluation failed")
		return fallbackAnswerEvaluation()
	}

	raw, err := parseJSONObject(out)
	if err != nil {
		s.log.WithError(err).Error("answer evaluation returned unparseable JSON")
		return fallbackAnswerEvaluation()
	}
	return raw
}

func fallbackAnswerEvaluation() map[string]any {
	return map[string]any{
		"fluency_score":          60,
		"confidence_score":       60,
		"content_accuracy_score": 50,
		"clarity_score":          60,
		"response_time_score":    50,
		"overall_score":          55,
		"feedback":               "Your answer addressed the question, but try to provide more specific details and speak more confidently.",
	}
}

func (s *evaluationService) GenerateFinalNarrative(ctx context.Context, questions, answers []string, visaType models.VisaType) FinalNarrative {
	var qa strings.Builder
	for i := range answers {
		if i >= len(questions) {
			break
		}
		fmt.Fprintf(&qa, "Question %d: %s\nAnswer %d: %s\n\n", i+1, questions[i], i+1, answers[i])
	}

	prompt := fmt.Sprintf(`You are an expert visa interview evaluator. Please provide a comprehensive
evaluation of this %s visa interview:

%s
Evaluate the interview on overall performance, communication skills, content
accuracy, confidence, strengths, and areas needing improvement.

Respond with a single JSON object with the keys overall_score (integer 0-100),
feedback_summary (string), strengths (array of 2-3 strings), and
areas_to_improve (array of 2-3 strings).`, visaType, qa.String())

	fallback := FinalNarrative{
		OverallScore:    70,
		FeedbackSummary: "Thank you for completing the visa interview practice session.",
		Strengths:       []string{"Completed all questions in the interview"},
		AreasToImprove:  []string{"Continue practicing to improve your responses"},
	}

	out, err := s.llm.Complete(ctx, "You are an expert visa interview evaluator providing detailed, constructive feedback.", prompt)
	if err != nil {
		s.log.WithError(err).Error("final evaluation failed")
		return fallback
	}

	raw, err := parseJSONObject(out)
	if err != nil {
		s.log.WithError(err).Error("final evaluation returned unparseable JSON")
		return fallback
	}

	n := fallback
	if v, ok := toInt(raw["overall_score"]); ok {
		n.OverallScore = float64(clampScore(v))
	}
	if v, ok := raw["feedback_summary"].(string); ok && v != "" {
		n.FeedbackSummary = v
	}
	if v := toStringSlice(raw["strengths"]); len(v) > 0 {
		n.Strengths = v
	}
	if v := toStringSlice(raw["areas_to_improve"]); len(v) > 0 {
		n.AreasToImprove = v
	}
	return n
}

// parseJSONObject extracts the first JSON object from model output, tolerating
// markdown code fences and surrounding prose.
func parseJSONObject(out string) (map[string]any, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(out[start:end+1]), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
