package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visaprep-ai/backend/internal/providers/tts"
	"github.com/visaprep-ai/backend/internal/utils"
)

type VoiceHandler struct {
	tts tts.Synthesizer
}

func NewVoiceHandler(synth tts.Synthesizer) *VoiceHandler {
	return &VoiceHandler{tts: synth}
}

func (h *VoiceHandler) ListVoices(c *gin.Context) {
	voices, err := h.tts.ListVoices(c.Request.Context())
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "VoiceHandler.ListVoices", "failed to list voices", err))
		return
	}
	c.JSON(http.StatusOK, voices)
}

type TTSRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
}

func (h *VoiceHandler) Synthesize(c *gin.Context) {
	var req TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VoiceHandler.Synthesize", "invalid request body", err))
		return
	}

	audioURL, err := h.tts.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "VoiceHandler.Synthesize", "synthesis failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_url": audioURL})
}
