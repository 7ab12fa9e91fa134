package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/visaprep-ai/backend/config"
	"github.com/visaprep-ai/backend/internal/api/handlers"
	"github.com/visaprep-ai/backend/internal/api/middleware"
	"github.com/visaprep-ai/backend/internal/api/routes"
	"github.com/visaprep-ai/backend/internal/cache"
	"github.com/visaprep-ai/backend/internal/logger"
	"github.com/visaprep-ai/backend/internal/providers/llm"
	"github.com/visaprep-ai/backend/internal/providers/stt"
	"github.com/visaprep-ai/backend/internal/providers/tts"
	pgrepo "github.com/visaprep-ai/backend/internal/repositories/postgres"
	"github.com/visaprep-ai/backend/internal/services"
	"github.com/visaprep-ai/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	// Question bank (optional; defaults cover a missing database)
	var questionRepo pgrepo.QuestionRepo
	if os.Getenv("POSTGRES_URI") != "" {
		if err := config.InitPostgres(); err != nil {
			log.Fatalf("PostgreSQL init error: %v", err)
		}
		l.Info("PostgreSQL connected")
		questionRepo = pgrepo.NewQuestionRepo(config.PostgresDB)
	} else {
		l.Warn("POSTGRES_URI not set, question bank disabled; using built-in questions")
	}

	// Redis question cache (optional)
	var questionCache cache.Cache
	if os.Getenv("REDIS_ADDR") != "" || os.Getenv("REDIS_URI") != "" || os.Getenv("REDIS_URL") != "" {
		if err := config.InitRedis(); err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		l.Info("Redis connected")
		questionCache = cache.NewRedisCache(config.RedisClient)
	} else {
		l.Warn("Redis not configured, question caching disabled")
	}

	questions := services.NewQuestionService(questionRepo, questionCache, l)
	if err := questions.EnsureSeeded(ctx); err != nil {
		l.WithError(err).Warn("question bank seeding failed")
	}

	// Transcription
	var sttProvider stt.Provider
	switch cfg.STTProvider {
	case "google":
		sttProvider, err = stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.Fatalf("Google Speech init error: %v", err)
		}
	default:
		sttProvider = stt.NewWhisper(cfg.GroqEndpoint, cfg.GroqAPIKey, cfg.WhisperModel, l)
	}
	defer sttProvider.Close()

	// Evaluation LLM
	var llmProvider llm.Provider
	switch cfg.LLMProvider {
	case "vertex":
		llmProvider, err = llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel)
		if err != nil {
			log.Fatalf("Vertex Gemini init error: %v", err)
		}
	default:
		llmProvider = llm.NewMistral(cfg.MistralEndpoint, cfg.MistralAPIKey, cfg.MistralModel)
	}
	defer llmProvider.Close()

	// Synthesized audio storage
	var uploader storage.Uploader
	if cfg.GCSBucket != "" {
		gcsUploader, err := storage.NewGCSUploader(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcsUploader.Close()
		uploader = gcsUploader
	} else {
		uploader, err = storage.NewLocalUploader(cfg.AudioDir)
		if err != nil {
			log.Fatalf("audio dir error: %v", err)
		}
	}

	synthesizer := tts.NewEdge(cfg.EdgeTTSURL, cfg.DefaultVoice, cfg.AudioFormat, cfg.VoiceOptions, uploader, l)
	evaluation := services.NewEvaluationService(llmProvider, l)
	sessions := services.NewSessionService(questions, evaluation, sttProvider, synthesizer, cfg.SubscriptionCaps, l)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session:  handlers.NewSessionHandler(sessions),
		Voice:    handlers.NewVoiceHandler(synthesizer),
		WS:       handlers.NewWSHandler(sessions, l),
		AudioDir: cfg.AudioDir,
	})

	l.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
