package app

import (
	"context"
	"fmt"
	"time"

	"quizdeck-service/internal/docstore"
	"quizdeck-service/internal/domain"
)

const responsesCollection = "responses"

// ResultLog is the append-only record of scored attempts. Entries are never
// updated or deleted; aggregation views are recomputed from it on demand.
type ResultLog struct {
	store docstore.Store
}

func NewResultLog(store docstore.Store) *ResultLog {
	return &ResultLog{store: store}
}

// Append durably records a scored result.
func (l *ResultLog) Append(ctx context.Context, result domain.Result) error {
	answers := make(map[string]any, len(result.Answers))
	for q, opt := range result.Answers {
		answers[q] = opt
	}
	_, err := l.store.Create(ctx, responsesCollection, docstore.Doc{
		"quiz":         result.QuizName,
		"user":         result.Username,
		"responses":    answers,
		"score":        result.Score,
		"submitted_at": result.SubmittedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: append result: %w", domain.ErrStorage, err)
	}
	return nil
}

// ForQuiz returns every submitted result for the quiz, oldest first.
func (l *ResultLog) ForQuiz(ctx context.Context, quizName string) ([]domain.Result, error) {
	docs, err := l.store.Get(ctx, responsesCollection, docstore.Filter{"quiz": quizName})
	if err != nil {
		return nil, fmt.Errorf("%w: load results: %w", domain.ErrStorage, err)
	}
	results := make([]domain.Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, docToResult(doc))
	}
	return results, nil
}

func docToResult(doc docstore.Document) domain.Result {
	result := domain.Result{
		ID:       doc.ID,
		QuizName: str(doc.Data["quiz"]),
		Username: str(doc.Data["user"]),
		Answers:  make(map[string]string),
	}
	switch score := doc.Data["score"].(type) {
	case float64:
		result.Score = score
	case int64:
		result.Score = float64(score)
	case int:
		result.Score = float64(score)
	}
	if answers, ok := doc.Data["responses"].(map[string]any); ok {
		for q, opt := range answers {
			result.Answers[q] = str(opt)
		}
	}
	if raw := str(doc.Data["submitted_at"]); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			result.SubmittedAt = ts
		}
	}
	return result
}
