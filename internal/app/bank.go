package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"quizdeck-service/internal/docstore"
	"quizdeck-service/internal/domain"
)

const questionsCollection = "questions"

// QuestionSource supplies the question snapshot an attempt is started from.
type QuestionSource interface {
	QuestionsFor(ctx context.Context, quizName string) ([]domain.Question, error)
}

// QuestionBank is the durable question catalog. It is the sole owner of the
// per-option vote counters; they are only ever mutated through RecordVote.
type QuestionBank struct {
	store docstore.Store
}

func NewQuestionBank(store docstore.Store) *QuestionBank {
	return &QuestionBank{store: store}
}

// AddQuestion validates and stores a question under quizName with all vote
// counters at zero.
func (b *QuestionBank) AddQuestion(ctx context.Context, quizName string, spec domain.QuestionSpec) (string, error) {
	if strings.TrimSpace(quizName) == "" {
		return "", fmt.Errorf("%w: quiz name is empty", domain.ErrValidation)
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}

	votes := make(map[string]any, len(spec.Options))
	for _, opt := range spec.Options {
		votes[opt] = int64(0)
	}
	doc := docstore.Doc{
		"quiz_name":  quizName,
		"question":   spec.Text,
		"options":    spec.Options,
		"correct":    spec.Correct,
		"points":     spec.Points,
		"votes":      votes,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	id, err := b.store.Create(ctx, questionsCollection, doc)
	if err != nil {
		return "", fmt.Errorf("%w: add question: %w", domain.ErrStorage, err)
	}
	return id, nil
}

// ListQuizNames returns the distinct quiz names, sorted. Empty names are
// excluded: a quiz with no questions does not exist.
func (b *QuestionBank) ListQuizNames(ctx context.Context) ([]string, error) {
	counts, err := b.countByQuiz(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Summaries returns every quiz with its question count, sorted by name.
func (b *QuestionBank) Summaries(ctx context.Context) ([]domain.QuizSummary, error) {
	counts, err := b.countByQuiz(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuizSummary, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.QuizSummary{Name: name, QuestionCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// QuestionsFor returns the quiz's questions in insertion order; empty slice
// for an unknown quiz name.
func (b *QuestionBank) QuestionsFor(ctx context.Context, quizName string) ([]domain.Question, error) {
	docs, err := b.store.Get(ctx, questionsCollection, docstore.Filter{"quiz_name": quizName})
	if err != nil {
		return nil, fmt.Errorf("%w: load questions: %w", domain.ErrStorage, err)
	}
	questions := make([]domain.Question, 0, len(docs))
	for _, doc := range docs {
		questions = append(questions, docToQuestion(doc))
	}
	return questions, nil
}

// CountFor returns the number of questions in a quiz.
func (b *QuestionBank) CountFor(ctx context.Context, quizName string) (int, error) {
	docs, err := b.store.Get(ctx, questionsCollection, docstore.Filter{"quiz_name": quizName})
	if err != nil {
		return 0, fmt.Errorf("%w: count questions: %w", domain.ErrStorage, err)
	}
	return len(docs), nil
}

// RecordVote atomically increments the vote counter for selectedOption on
// the question matching (quizName, questionText). A miss or an illegal
// option is a no-op and reports ErrQuestionNotFound; the counter is never
// partially incremented.
func (b *QuestionBank) RecordVote(ctx context.Context, quizName, questionText, selectedOption string) error {
	docs, err := b.store.Get(ctx, questionsCollection, docstore.Filter{
		"quiz_name": quizName,
		"question":  questionText,
	})
	if err != nil {
		return fmt.Errorf("%w: record vote: %w", domain.ErrStorage, err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: %q in quiz %q", domain.ErrQuestionNotFound, questionText, quizName)
	}
	question := docToQuestion(docs[0])
	if !containsOption(question.Options, selectedOption) {
		return fmt.Errorf("%w: option %q on question %q", domain.ErrQuestionNotFound, selectedOption, questionText)
	}
	err = b.store.IncrField(ctx, questionsCollection, docs[0].ID, []string{"votes", selectedOption}, 1)
	if errors.Is(err, docstore.ErrNoDocument) {
		return fmt.Errorf("%w: %q in quiz %q", domain.ErrQuestionNotFound, questionText, quizName)
	}
	if err != nil {
		return fmt.Errorf("%w: record vote: %w", domain.ErrStorage, err)
	}
	return nil
}

func (b *QuestionBank) countByQuiz(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := b.store.StreamAll(ctx, questionsCollection, func(doc docstore.Document) error {
		if name, _ := doc.Data["quiz_name"].(string); name != "" {
			counts[name]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list quizzes: %w", domain.ErrStorage, err)
	}
	return counts, nil
}

func containsOption(options []string, option string) bool {
	for _, opt := range options {
		if opt == option {
			return true
		}
	}
	return false
}

// docToQuestion tolerates both native Go values (memory store) and JSON
// round-tripped ones (postgres store).
func docToQuestion(doc docstore.Document) domain.Question {
	q := domain.Question{
		ID:       doc.ID,
		QuizName: str(doc.Data["quiz_name"]),
		Text:     str(doc.Data["question"]),
		Correct:  str(doc.Data["correct"]),
		Points:   int(num(doc.Data["points"])),
		Votes:    make(map[string]int64),
	}
	switch opts := doc.Data["options"].(type) {
	case []string:
		q.Options = append(q.Options, opts...)
	case []any:
		for _, o := range opts {
			q.Options = append(q.Options, str(o))
		}
	}
	if votes, ok := doc.Data["votes"].(map[string]any); ok {
		for opt, n := range votes {
			q.Votes[opt] = num(n)
		}
	}
	return q
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
