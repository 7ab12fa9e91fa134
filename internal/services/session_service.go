package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visaprep-ai/backend/internal/models"
	"github.com/visaprep-ai/backend/internal/providers/stt"
	"github.com/visaprep-ai/backend/internal/providers/tts"
	"github.com/visaprep-ai/backend/internal/utils"
)

// StartResult is the response shape for a freshly created session.
type StartResult struct {
	SessionID      string `json:"session_id"`
	QuestionText   string `json:"question_text"`
	AudioURL       string `json:"audio_url"`
	QuestionIndex  int    `json:"question_index"`
	TotalQuestions int    `json:"total_questions"`
}

// AnswerOutcome is the result of processing one answer: either the next
// question or the final evaluation, never both.
type AnswerOutcome struct {
	SessionComplete bool
	Transcript      string // set only for streamed answers
	QuestionText    string
	AudioURL        string
	QuestionIndex   int
	TotalQuestions  int
	LastEvaluation  models.AnswerEvaluation
	FinalEvaluation *models.FinalEvaluation
}

// SessionService owns the interview state machine: question delivery, answer
// scoring, index progression, and the final aggregate evaluation.
type SessionService interface {
	Start(ctx context.Context, visaType models.VisaType, level models.SubscriptionLevel, voiceID string) (*StartResult, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	SubmitAnswer(ctx context.Context, sessionID, answerText string) (*AnswerOutcome, error)
	ProcessStreamedAnswer(ctx context.Context, sessionID string, audio []byte) (*AnswerOutcome, error)
}

type sessionService struct {
	store     *sessionStore
	questions QuestionService
	eval      EvaluationService
	stt       stt.Provider
	tts       tts.Synthesizer
	caps      map[models.SubscriptionLevel]int
	log       *logrus.Logger
}

func NewSessionService(
	questions QuestionService,
	eval EvaluationService,
	sttProvider stt.Provider,
	synthesizer tts.Synthesizer,
	caps map[models.SubscriptionLevel]int,
	log *logrus.Logger,
) SessionService {
	return &sessionService{
		store:     newSessionStore(),
		questions: questions,
		eval:      eval,
		stt:       sttProvider,
		tts:       synthesizer,
		caps:      caps,
		log:       log,
	}
}

func (s *sessionService) Start(ctx context.Context, visaType models.VisaType, level models.SubscriptionLevel, voiceID string) (*StartResult, error) {
	const op = "SessionService.Start"

	if !visaType.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "visa_type must be tourist or student", nil)
	}
	if !level.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown subscription_level", nil)
	}

	// caps are validated at startup; a missing level here is a deployment bug
	total, ok := s.caps[level]
	if !ok {
		return nil, utils.E(utils.CodeInternal, op, "subscription level has no question cap", nil)
	}

	questions := s.questions.GetQuestions(ctx, visaType, total)
	if len(questions) < 1 {
		return nil, utils.E(utils.CodeInternal, op, "failed to start interview", nil)
	}

	audioURL, err := s.tts.Synthesize(ctx, questions[0], voiceID)
	if err != nil {
		audioURL = tts.ErrorAudioURL
	}

	sess := &models.Session{
		SessionID:         uuid.NewString(),
		VisaType:          visaType,
		SubscriptionLevel: level,
		VoiceID:           voiceID,
		Questions:         questions,
		Answers:           []string{},
		Evaluations:       []models.AnswerEvaluation{},
		CreatedAt:         time.Now().UTC(),
	}
	s.store.Insert(sess)

	s.log.WithFields(logrus.Fields{
		"session_id": sess.SessionID,
		"visa_type":  visaType,
		"questions":  len(questions),
	}).Info("interview session started")

	return &StartResult{
		SessionID:      sess.SessionID,
		QuestionText:   questions[0],
		AudioURL:       audioURL,
		QuestionIndex:  1,
		TotalQuestions: len(questions),
	}, nil
}

func (s *sessionService) Get(_ context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	entry, ok := s.store.Lookup(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	return entry.sess, nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID, answerText string) (*AnswerOutcome, error) {
	const op = "SessionService.SubmitAnswer"

	entry, ok := s.store.Lookup(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return s.advance(ctx, op, entry.sess, answerText)
}

// ProcessStreamedAnswer transcribes the buffered audio and runs the same
// advancement step as SubmitAnswer. The transcript, including sentinel error
// text from the transcription client, is treated as the answer.
func (s *sessionService) ProcessStreamedAnswer(ctx context.Context, sessionID string, audio []byte) (*AnswerOutcome, error) {
	const op = "SessionService.ProcessStreamedAnswer"

	entry, ok := s.store.Lookup(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sess.Complete() {
		return nil, utils.E(utils.CodeInvalidState, op, "no more questions in this session", nil)
	}

	transcript, err := s.stt.Transcribe(ctx, audio, "")
	if err != nil {
		transcript = "Could not transcribe audio."
	}

	outcome, err := s.advance(ctx, op, entry.sess, transcript)
	if err != nil {
		return nil, err
	}
	outcome.Transcript = transcript
	return outcome, nil
}

// advance runs one step of the state machine. State is only mutated after
// evaluation succeeds so a failed call leaves the session untouched. Callers
// hold the session lock.
func (s *sessionService) advance(ctx context.Context, op string, sess *models.Session, answerText string) (*AnswerOutcome, error) {
	idx := sess.CurrentQuestionIndex
	if idx >= len(sess.Questions) {
		return nil, utils.E(utils.CodeInvalidState, op, "no more questions in this session", nil)
	}
	question := sess.Questions[idx]

	raw := s.eval.EvaluateAnswer(ctx, question, answerText, sess.VisaType)
	evaluation, err := NormalizeEvaluation(raw)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "error processing answer", err)
	}

	sess.Answers = append(sess.Answers, answerText)
	sess.Evaluations = append(sess.Evaluations, evaluation)
	sess.CurrentQuestionIndex++

	if sess.Complete() {
		final := s.finalEvaluation(ctx, sess)
		s.log.WithField("session_id", sess.SessionID).Info("interview complete")
		return &AnswerOutcome{
			SessionComplete: true,
			LastEvaluation:  evaluation,
			FinalEvaluation: final,
		}, nil
	}

	next := sess.Questions[sess.CurrentQuestionIndex]
	audioURL, err := s.tts.Synthesize(ctx, next, sess.VoiceID)
	if err != nil {
		audioURL = tts.ErrorAudioURL
	}

	return &AnswerOutcome{
		QuestionText:   next,
		AudioURL:       audioURL,
		QuestionIndex:  sess.CurrentQuestionIndex + 1,
		TotalQuestions: len(sess.Questions),
		LastEvaluation: evaluation,
	}, nil
}

// finalEvaluation combines per-dimension averages computed here with the
// narrative from the evaluation engine.
func (s *sessionService) finalEvaluation(ctx context.Context, sess *models.Session) *models.FinalEvaluation {
	n := float64(len(sess.Evaluations))
	detailed := map[string]float64{
		"fluency":          0,
		"confidence":       0,
		"content_accuracy": 0,
		"clarity":          0,
		"response_time":    0,
	}
	for _, e := range sess.Evaluations {
		detailed["fluency"] += float64(e.FluencyScore)
		detailed["confidence"] += float64(e.ConfidenceScore)
		detailed["content_accuracy"] += float64(e.ContentAccuracyScore)
		detailed["clarity"] += float64(e.ClarityScore)
		detailed["response_time"] += float64(e.ResponseTimeScore)
	}
	if n > 0 {
		for k := range detailed {
			detailed[k] /= n
		}
	}

	narrative := s.eval.GenerateFinalNarrative(ctx, sess.Questions, sess.Answers, sess.VisaType)

	return &models.FinalEvaluation{
		OverallScore:    narrative.OverallScore,
		FeedbackSummary: narrative.FeedbackSummary,
		DetailedScores:  detailed,
		Strengths:       narrative.Strengths,
		AreasToImprove:  narrative.AreasToImprove,
	}
}
