package postgres

import (
	"context"

	"github.com/visaprep-ai/backend/internal/models"
	"gorm.io/gorm"
)

type QuestionRepo interface {
	Insert(ctx context.Context, questions []models.Question) error
	ListByType(ctx context.Context, visaType string, limit int) ([]models.Question, error)
	CountByType(ctx context.Context, visaType string) (int64, error)
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepo {
	return &questionRepo{db: db}
}

func (r *questionRepo) Insert(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionRepo) ListByType(ctx context.Context, visaType string, limit int) ([]models.Question, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []models.Question
	err := r.db.WithContext(ctx).
		Where("visa_type = ?", visaType).
		Order("random()").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *questionRepo) CountByType(ctx context.Context, visaType string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("visa_type = ?", visaType).
		Count(&n).Error
	return n, err
}
