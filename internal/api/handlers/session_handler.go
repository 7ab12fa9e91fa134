package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visaprep-ai/backend/internal/models"
	"github.com/visaprep-ai/backend/internal/services"
	"github.com/visaprep-ai/backend/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type StartInterviewRequest struct {
	VisaType          models.VisaType          `json:"visa_type" binding:"required"`
	SubscriptionLevel models.SubscriptionLevel `json:"subscription_level" binding:"required"`
	VoiceID           string                   `json:"voice_id" binding:"required"`
}

func (h *SessionHandler) StartInterview(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.StartInterview", "invalid request body", err))
		return
	}

	out, err := h.svc.Start(c.Request.Context(), req.VisaType, req.SubscriptionLevel, req.VoiceID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

type SubmitAnswerRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	AnswerText string `json:"answer_text"`
}

type SubmitAnswerResponse struct {
	SessionComplete bool                     `json:"session_complete"`
	QuestionText    string                   `json:"question_text,omitempty"`
	AudioURL        string                   `json:"audio_url,omitempty"`
	QuestionIndex   int                      `json:"question_index,omitempty"`
	TotalQuestions  int                      `json:"total_questions,omitempty"`
	LastEvaluation  *models.AnswerEvaluation `json:"last_evaluation,omitempty"`
	FinalEvaluation *models.FinalEvaluation  `json:"final_evaluation,omitempty"`
}

func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.SubmitAnswer", "invalid request body", err))
		return
	}

	outcome, err := h.svc.SubmitAnswer(c.Request.Context(), req.SessionID, req.AnswerText)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitResponseFrom(outcome))
}

func submitResponseFrom(o *services.AnswerOutcome) SubmitAnswerResponse {
	last := o.LastEvaluation
	resp := SubmitAnswerResponse{
		SessionComplete: o.SessionComplete,
		LastEvaluation:  &last,
	}
	if o.SessionComplete {
		resp.FinalEvaluation = o.FinalEvaluation
		return resp
	}
	resp.QuestionText = o.QuestionText
	resp.AudioURL = o.AudioURL
	resp.QuestionIndex = o.QuestionIndex
	resp.TotalQuestions = o.TotalQuestions
	return resp
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "VISA Interview Training API is running"})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
