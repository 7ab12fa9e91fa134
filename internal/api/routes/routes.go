package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/visaprep-ai/backend/internal/api/handlers"
)

type Deps struct {
	Session *handlers.SessionHandler
	Voice   *handlers.VoiceHandler
	WS      *handlers.WSHandler

	AudioDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", handlers.Root)
	r.GET("/api/health", handlers.Health)

	r.POST("/api/startInterview", d.Session.StartInterview)
	r.POST("/api/submitAnswer", d.Session.SubmitAnswer)

	r.GET("/api/voices", d.Voice.ListVoices)
	r.POST("/api/tts", d.Voice.Synthesize)

	// WebSocket
	r.GET("/ws/stream", d.WS.StreamWS)
	r.GET("/ws/health", d.WS.HealthWS)

	// Synthesized audio
	if d.AudioDir != "" {
		r.Static("/audio", d.AudioDir)
	}
}
