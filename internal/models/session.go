package models

import "time"

type VisaType string

const (
	VisaTourist VisaType = "tourist"
	VisaStudent VisaType = "student"
)

func (v VisaType) Valid() bool {
	return v == VisaTourist || v == VisaStudent
}

type SubscriptionLevel string

const (
	SubscriptionFree    SubscriptionLevel = "free"
	SubscriptionSuper   SubscriptionLevel = "super"
	SubscriptionPremium SubscriptionLevel = "premium"
)

func (s SubscriptionLevel) Valid() bool {
	return s == SubscriptionFree || s == SubscriptionSuper || s == SubscriptionPremium
}

// Session is one end-to-end interview attempt. It lives only in process memory;
// the question list is fixed at creation and CurrentQuestionIndex never decreases.
type Session struct {
	SessionID         string            `json:"session_id"` // uuid v4
	VisaType          VisaType          `json:"visa_type"`
	SubscriptionLevel SubscriptionLevel `json:"subscription_level"`
	VoiceID           string            `json:"voice_id"`

	Questions            []string           `json:"questions"`
	CurrentQuestionIndex int                `json:"current_question_index"`
	Answers              []string           `json:"answers"`
	Evaluations          []AnswerEvaluation `json:"evaluations"`

	CreatedAt time.Time `json:"created_at"`
}

// Complete reports whether every question has been answered and evaluated.
func (s *Session) Complete() bool {
	return s.CurrentQuestionIndex >= len(s.Questions)
}

// AnswerEvaluation holds the five per-answer rubric scores, each in [0,100].
type AnswerEvaluation struct {
	FluencyScore         int    `json:"fluency_score"`
	ConfidenceScore      int    `json:"confidence_score"`
	ContentAccuracyScore int    `json:"content_accuracy_score"`
	ClarityScore         int    `json:"clarity_score"`
	ResponseTimeScore    int    `json:"response_time_score"`
	Feedback             string `json:"feedback"`
}

// FinalEvaluation is produced exactly once, when the session completes.
type FinalEvaluation struct {
	OverallScore    float64            `json:"overall_score"`
	FeedbackSummary string             `json:"feedback_summary"`
	DetailedScores  map[string]float64 `json:"detailed_scores"`
	Strengths       []string           `json:"strengths"`
	AreasToImprove  []string           `json:"areas_to_improve"`
}

type VoiceOption struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender,omitempty"`
}
