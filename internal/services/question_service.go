package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/visaprep-ai/backend/internal/cache"
	"github.com/visaprep-ai/backend/internal/models"
	pgrepo "github.com/visaprep-ai/backend/internal/repositories/postgres"
)

// QuestionService retrieves ordered question lists for a visa type. It never
// fails: any bank or cache problem degrades to the built-in default lists.
type QuestionService interface {
	GetQuestions(ctx context.Context, visaType models.VisaType, n int) []string
	EnsureSeeded(ctx context.Context) error
}

type questionService struct {
	repo  pgrepo.QuestionRepo // may be nil when no database is configured
	cache cache.Cache         // may be nil when no redis is configured
	log   *logrus.Logger
}

func NewQuestionService(repo pgrepo.QuestionRepo, c cache.Cache, log *logrus.Logger) QuestionService {
	return &questionService{repo: repo, cache: c, log: log}
}

const questionCacheTTL = time.Hour

func (s *questionService) GetQuestions(ctx context.Context, visaType models.VisaType, n int) []string {
	if s.repo == nil {
		return DefaultQuestions(visaType, n)
	}

	key := fmt.Sprintf("questions:%s:%d", visaType, n)
	if s.cache != nil {
		var cached []string
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit && len(cached) == n {
			return cached
		}
	}

	rows, err := s.repo.ListByType(ctx, string(visaType), n)
	if err != nil {
		s.log.WithError(err).Warn("question bank query failed, using defaults")
		return DefaultQuestions(visaType, n)
	}

	out := make([]string, 0, n)
	seen := map[string]bool{}
	for _, q := range rows {
		if !seen[q.Text] {
			seen[q.Text] = true
			out = append(out, q.Text)
		}
	}

	// pad a short bank from the default list
	for _, q := range DefaultQuestions(visaType, 0) {
		if len(out) >= n {
			break
		}
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	if len(out) > n {
		out = out[:n]
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, questionCacheTTL); err != nil {
			s.log.WithError(err).Debug("question cache set failed")
		}
	}
	return out
}

// EnsureSeeded inserts the default question lists when the bank is empty.
func (s *questionService) EnsureSeeded(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	now := time.Now().UTC()
	for visaType, texts := range defaultQuestions {
		count, err := s.repo.CountByType(ctx, string(visaType))
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		rows := make([]models.Question, 0, len(texts))
		for _, t := range texts {
			rows = append(rows, models.Question{
				ID:        uuid.NewString(),
				VisaType:  string(visaType),
				Text:      t,
				Embedding: pgvector.NewVector(make([]float32, 384)), // zero vector until an embedder backfills
				Metadata:  []byte(`{"source":"builtin"}`),
				CreatedAt: now,
			})
		}
		if err := s.repo.Insert(ctx, rows); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"visa_type": visaType, "count": len(rows)}).Info("seeded question bank")
	}
	return nil
}
