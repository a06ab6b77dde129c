package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"quizdeck-service/internal/domain"
)

// AttemptStore keeps live attempts between requests (in-memory, Redis, etc).
// Take removes and returns the attempt under the store's lock, so at most
// one caller can claim a given attempt.
type AttemptStore interface {
	Put(attempt *Attempt)
	Get(id string) (*Attempt, bool)
	Take(id string) (*Attempt, bool)
	Delete(id string)
}

// DraftRegistry hands each admin their own draft builder, serializing
// access per user.
type DraftRegistry interface {
	Do(username string, fn func(*DraftBuilder) error) error
}

// SnapshotInvalidator drops a cached question snapshot, e.g. after a quiz
// is republished.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, quizName string)
}

// QuizService wires the authoring, attempt, scoring, and aggregation use
// cases together for the presentation layer.
type QuizService struct {
	bank     *QuestionBank
	results  *ResultLog
	scorer   *Scorer
	agg      *Aggregator
	source   QuestionSource
	attempts AttemptStore
	drafts   DraftRegistry
	feed     *LeaderboardFeed
	inv      SnapshotInvalidator
}

func NewQuizService(bank *QuestionBank, results *ResultLog, source QuestionSource, attempts AttemptStore, drafts DraftRegistry) *QuizService {
	return &QuizService{
		bank:     bank,
		results:  results,
		scorer:   NewScorer(bank),
		agg:      NewAggregator(bank, results),
		source:   source,
		attempts: attempts,
		drafts:   drafts,
		feed:     NewLeaderboardFeed(),
	}
}

// SetInvalidator registers a snapshot cache to drop on publish.
func (s *QuizService) SetInvalidator(inv SnapshotInvalidator) {
	s.inv = inv
}

// ListQuizzes returns the catalog: quiz names with question counts.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.bank.Summaries(ctx)
}

// QuizQuestions returns the quiz's questions; ErrQuizNotFound if none.
func (s *QuizService) QuizQuestions(ctx context.Context, quizName string) ([]domain.Question, error) {
	questions, err := s.bank.QuestionsFor(ctx, quizName)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizName)
	}
	return questions, nil
}

// StageQuestion adds a question to the admin's draft.
func (s *QuizService) StageQuestion(username string, spec domain.QuestionSpec) error {
	return s.drafts.Do(username, func(d *DraftBuilder) error {
		return d.Stage(spec)
	})
}

// RemoveStaged drops a staged question by position.
func (s *QuizService) RemoveStaged(username string, index int) error {
	return s.drafts.Do(username, func(d *DraftBuilder) error {
		return d.Remove(index)
	})
}

// StagedQuestions lists the admin's pending draft.
func (s *QuizService) StagedQuestions(username string) ([]domain.QuestionSpec, error) {
	var staged []domain.QuestionSpec
	err := s.drafts.Do(username, func(d *DraftBuilder) error {
		staged = d.Staged()
		return nil
	})
	return staged, err
}

// PublishDraft commits the admin's draft under quizName, all-or-nothing.
func (s *QuizService) PublishDraft(ctx context.Context, username, quizName string) (int, error) {
	var published int
	err := s.drafts.Do(username, func(d *DraftBuilder) error {
		n, err := d.Publish(ctx, quizName, s.bank)
		published = n
		return err
	})
	if err == nil && s.inv != nil {
		s.inv.Invalidate(ctx, quizName)
	}
	return published, err
}

// StartQuiz opens an attempt for the participant and registers it.
func (s *QuizService) StartQuiz(ctx context.Context, quizName string, user domain.UserIdentity) (*Attempt, error) {
	attempt, err := StartAttempt(ctx, quizName, user, s.source)
	if err != nil {
		return nil, err
	}
	s.attempts.Put(attempt)
	return attempt, nil
}

// AnswerQuestion records (or overwrites) a choice on a live attempt.
func (s *QuizService) AnswerQuestion(attemptID, questionText, selectedOption string) error {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attemptID)
	}
	attempt.Answer(questionText, selectedOption)
	return nil
}

// GetAttempt returns a live attempt by id.
func (s *QuizService) GetAttempt(attemptID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attemptID)
	}
	return attempt, nil
}

// SubmitAttempt scores the attempt, applies vote deltas, appends the result
// to the log, and pushes a fresh leaderboard to live subscribers. The
// attempt is claimed out of the store before scoring, so a racing second
// submit sees ErrAttemptNotFound instead of scoring the attempt twice. On
// failure the attempt is re-registered so the participant can retry.
func (s *QuizService) SubmitAttempt(ctx context.Context, attemptID string) (domain.Result, error) {
	attempt, ok := s.attempts.Take(attemptID)
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attemptID)
	}

	result, err := s.scorer.Score(ctx, attempt)
	if err != nil {
		s.attempts.Put(attempt)
		return domain.Result{}, err
	}
	if err := s.results.Append(ctx, result); err != nil {
		s.attempts.Put(attempt)
		return domain.Result{}, err
	}

	s.publishLeaderboard(ctx, attempt.QuizName)
	return result, nil
}

// Stats reports attempt count and average score for a quiz.
func (s *QuizService) Stats(ctx context.Context, quizName string) (domain.QuizStats, error) {
	return s.agg.QuizStats(ctx, quizName)
}

// Breakdown reports per-question vote distributions for a quiz.
func (s *QuizService) Breakdown(ctx context.Context, quizName string) ([]domain.QuestionBreakdown, error) {
	return s.agg.QuestionBreakdown(ctx, quizName)
}

// Leaderboard ranks participants by best score.
func (s *QuizService) Leaderboard(ctx context.Context, quizName string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.agg.Leaderboard(ctx, quizName, limit)
}

// WatchLeaderboard subscribes to live leaderboard snapshots for a quiz. The
// caller must invoke the cancel function when done.
func (s *QuizService) WatchLeaderboard(ctx context.Context, quizName string) (<-chan domain.Leaderboard, func(), error) {
	count, err := s.bank.CountFor(ctx, quizName)
	if err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizName)
	}
	initial, err := s.leaderboardSnapshot(ctx, quizName)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(quizName, initial)
	return ch, cancel, nil
}

func (s *QuizService) publishLeaderboard(ctx context.Context, quizName string) {
	snapshot, err := s.leaderboardSnapshot(ctx, quizName)
	if err != nil {
		log.Printf("leaderboard refresh for %q failed: %v", quizName, err)
		return
	}
	s.feed.Publish(quizName, snapshot)
}

func (s *QuizService) leaderboardSnapshot(ctx context.Context, quizName string) (domain.Leaderboard, error) {
	entries, err := s.agg.Leaderboard(ctx, quizName, DefaultLeaderboardLimit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		QuizName:  quizName,
		Entries:   entries,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
