package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Question is one row in the interview question bank.
type Question struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VisaType  string          `gorm:"column:visa_type;type:text;index" json:"visa_type"` // "tourist" | "student"
	Text      string          `gorm:"column:text;type:text" json:"text"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(384)" json:"embedding"`
	Metadata  datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Question) TableName() string { return "questions" }
