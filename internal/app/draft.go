package app

import (
	"context"
	"fmt"
	"strings"

	"quizdeck-service/internal/domain"
)

// DraftBuilder accumulates questions for one authoring session before they
// are published into the QuestionBank. It is owned by a single admin; the
// surrounding layer serializes access.
type DraftBuilder struct {
	staged []domain.QuestionSpec
}

func NewDraftBuilder() *DraftBuilder {
	return &DraftBuilder{}
}

// Stage validates and appends a question to the pending list. The bank is
// not touched.
func (d *DraftBuilder) Stage(spec domain.QuestionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	d.staged = append(d.staged, spec)
	return nil
}

// Remove drops the staged question at index.
func (d *DraftBuilder) Remove(index int) error {
	if index < 0 || index >= len(d.staged) {
		return fmt.Errorf("%w: %d of %d staged", domain.ErrIndexOutOfRange, index, len(d.staged))
	}
	d.staged = append(d.staged[:index], d.staged[index+1:]...)
	return nil
}

// Staged returns a copy of the pending list.
func (d *DraftBuilder) Staged() []domain.QuestionSpec {
	out := make([]domain.QuestionSpec, len(d.staged))
	copy(out, d.staged)
	return out
}

func (d *DraftBuilder) Len() int { return len(d.staged) }

// Publish commits every staged question to the bank under quizName and
// clears the draft. All-or-nothing: every item is re-validated up front and
// nothing is committed if any fails.
func (d *DraftBuilder) Publish(ctx context.Context, quizName string, bank *QuestionBank) (int, error) {
	if strings.TrimSpace(quizName) == "" {
		return 0, fmt.Errorf("%w: quiz name is empty", domain.ErrValidation)
	}
	if len(d.staged) == 0 {
		return 0, fmt.Errorf("%w: no questions staged", domain.ErrValidation)
	}
	for i, spec := range d.staged {
		if err := spec.Validate(); err != nil {
			return 0, fmt.Errorf("staged question %d: %w", i+1, err)
		}
	}
	for i, spec := range d.staged {
		if _, err := bank.AddQuestion(ctx, quizName, spec); err != nil {
			return 0, fmt.Errorf("publish question %d: %w", i+1, err)
		}
	}
	published := len(d.staged)
	d.staged = nil
	return published, nil
}
