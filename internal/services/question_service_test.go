package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaprep-ai/backend/internal/models"
)

type fakeQuestionRepo struct {
	rows     []models.Question
	err      error
	inserted []models.Question
	count    int64
}

func (f *fakeQuestionRepo) Insert(_ context.Context, qs []models.Question) error {
	f.inserted = append(f.inserted, qs...)
	return nil
}

func (f *fakeQuestionRepo) ListByType(_ context.Context, _ string, limit int) ([]models.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeQuestionRepo) CountByType(context.Context, string) (int64, error) {
	return f.count, nil
}

type mapCache struct {
	data map[string][]string
	sets int
}

func (m *mapCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(dst.(*[]string)) = v
	return true, nil
}

func (m *mapCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	m.sets++
	if m.data == nil {
		m.data = map[string][]string{}
	}
	m.data[key] = append([]string(nil), val.([]string)...)
	return nil
}

func (m *mapCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestGetQuestionsWithoutRepoUsesDefaults(t *testing.T) {
	svc := NewQuestionService(nil, nil, quietLogger())

	qs := svc.GetQuestions(context.Background(), models.VisaTourist, 5)
	require.Len(t, qs, 5)
	assert.Equal(t, DefaultQuestions(models.VisaTourist, 5), qs)
}

func TestGetQuestionsRepoErrorFallsBack(t *testing.T) {
	repo := &fakeQuestionRepo{err: errors.New("db down")}
	svc := NewQuestionService(repo, nil, quietLogger())

	qs := svc.GetQuestions(context.Background(), models.VisaStudent, 5)
	assert.Equal(t, DefaultQuestions(models.VisaStudent, 5), qs)
}

func TestGetQuestionsPadsShortBank(t *testing.T) {
	repo := &fakeQuestionRepo{rows: []models.Question{
		{Text: "What brings you to the US?"},
		{Text: "Who is paying for the trip?"},
	}}
	svc := NewQuestionService(repo, nil, quietLogger())

	qs := svc.GetQuestions(context.Background(), models.VisaTourist, 5)
	require.Len(t, qs, 5)
	assert.Equal(t, "What brings you to the US?", qs[0])
	assert.Equal(t, "Who is paying for the trip?", qs[1])
	// padded from defaults, no duplicates
	seen := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q], "duplicate question %q", q)
		seen[q] = true
	}
}

func TestGetQuestionsUsesCache(t *testing.T) {
	repo := &fakeQuestionRepo{rows: []models.Question{{Text: "from-db-1"}, {Text: "from-db-2"}}}
	c := &mapCache{data: map[string][]string{
		"questions:tourist:2": {"cached-1", "cached-2"},
	}}
	svc := NewQuestionService(repo, c, quietLogger())

	qs := svc.GetQuestions(context.Background(), models.VisaTourist, 2)
	assert.Equal(t, []string{"cached-1", "cached-2"}, qs)
}

func TestGetQuestionsPopulatesCache(t *testing.T) {
	repo := &fakeQuestionRepo{rows: []models.Question{{Text: "a"}, {Text: "b"}}}
	c := &mapCache{}
	svc := NewQuestionService(repo, c, quietLogger())

	_ = svc.GetQuestions(context.Background(), models.VisaTourist, 2)
	assert.Equal(t, 1, c.sets)
}

func TestEnsureSeededInsertsDefaultsWhenEmpty(t *testing.T) {
	repo := &fakeQuestionRepo{count: 0}
	svc := NewQuestionService(repo, nil, quietLogger())

	require.NoError(t, svc.EnsureSeeded(context.Background()))
	assert.Len(t, repo.inserted, 30) // 15 tourist + 15 student

	for _, q := range repo.inserted {
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.Text)
		assert.Contains(t, []string{"tourist", "student"}, q.VisaType)
	}
}

func TestEnsureSeededSkipsPopulatedBank(t *testing.T) {
	repo := &fakeQuestionRepo{count: 12}
	svc := NewQuestionService(repo, nil, quietLogger())

	require.NoError(t, svc.EnsureSeeded(context.Background()))
	assert.Empty(t, repo.inserted)
}
