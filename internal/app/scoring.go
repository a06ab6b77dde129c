package app

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"quizdeck-service/internal/domain"
)

// Scorer turns a completed attempt into a Result and applies the vote
// deltas to the question bank. Appending the Result to the log is the
// caller's step, keeping score computation testable without storage.
type Scorer struct {
	bank *QuestionBank
	now  func() time.Time
}

func NewScorer(bank *QuestionBank) *Scorer {
	return &Scorer{bank: bank, now: time.Now}
}

// NewScorerWithClock is test-only for deterministic timestamps.
func NewScorerWithClock(bank *QuestionBank, now func() time.Time) *Scorer {
	return &Scorer{bank: bank, now: now}
}

// Score computes the percentage score from the attempt's snapshot and
// records one vote per answered question, correct or not. A vote the bank
// rejects as unknown is logged and skipped; scoring is unaffected. A store
// failure aborts with the error.
func (s *Scorer) Score(ctx context.Context, attempt *Attempt) (domain.Result, error) {
	answers := attempt.Answers()
	percentage := ComputeScore(attempt.Questions(), answers)

	for _, q := range attempt.Questions() {
		selected, ok := answers[q.Text]
		if !ok {
			continue
		}
		err := s.bank.RecordVote(ctx, attempt.QuizName, q.Text, selected)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			log.Printf("skipping vote for %q on %q: %v", selected, q.Text, err)
			continue
		}
		if err != nil {
			return domain.Result{}, err
		}
	}

	return domain.Result{
		ID:          uuid.NewString(),
		QuizName:    attempt.QuizName,
		Username:    attempt.User.Username,
		Answers:     answers,
		Score:       percentage,
		SubmittedAt: s.now().UTC(),
	}, nil
}

// ComputeScore is the pure scoring rule: earned points over total points as
// a percentage, rounded to one decimal. A zero-point quiz scores 0.0 rather
// than dividing by zero.
func ComputeScore(questions []domain.Question, answers map[string]string) float64 {
	totalPoints := 0
	earnedPoints := 0
	for _, q := range questions {
		totalPoints += q.Points
		if selected, ok := answers[q.Text]; ok && selected == q.Correct {
			earnedPoints += q.Points
		}
	}
	if totalPoints <= 0 {
		return 0
	}
	pct := float64(earnedPoints) / float64(totalPoints) * 100
	return math.Round(pct*10) / 10
}
