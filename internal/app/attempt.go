package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"quizdeck-service/internal/domain"
)

// Attempt is one participant's in-progress run through a quiz. It holds an
// immutable snapshot of the questions taken at start; vote counters churned
// by other participants' submissions never leak into it. The answer map is
// guarded internally, so overlapping requests on the same attempt are safe.
type Attempt struct {
	ID       string
	User     domain.UserIdentity
	QuizName string

	questions []domain.Question

	mu      sync.Mutex
	answers map[string]string
}

// StartAttempt snapshots the quiz's questions and opens an attempt. Fails
// with ErrEmptyQuiz if the quiz has no questions.
func StartAttempt(ctx context.Context, quizName string, user domain.UserIdentity, source QuestionSource) (*Attempt, error) {
	questions, err := source.QuestionsFor(ctx, quizName)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrEmptyQuiz, quizName)
	}
	return &Attempt{
		ID:        uuid.NewString(),
		User:      user,
		QuizName:  quizName,
		questions: questions,
		answers:   make(map[string]string),
	}, nil
}

// Answer records the participant's choice for a question, overwriting any
// previous choice. The option is not validated here; an illegal choice
// surfaces at scoring as a non-match.
func (a *Attempt) Answer(questionText, selectedOption string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.answers[questionText] = selectedOption
}

// IsComplete reports whether every snapshotted question has been answered.
func (a *Attempt) IsComplete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, q := range a.questions {
		if _, ok := a.answers[q.Text]; !ok {
			return false
		}
	}
	return true
}

// Questions returns the snapshot taken at start.
func (a *Attempt) Questions() []domain.Question {
	out := make([]domain.Question, len(a.questions))
	copy(out, a.questions)
	return out
}

// Answers returns a copy of the current answer map.
func (a *Attempt) Answers() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.answers))
	for q, opt := range a.answers {
		out[q] = opt
	}
	return out
}
