package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
)

func newBankWithCapitals(t *testing.T) *app.QuestionBank {
	t.Helper()
	bank := app.NewQuestionBank(memory.NewDocStore())
	_, err := bank.AddQuestion(context.Background(), "Capitals", domain.QuestionSpec{
		Text:    "Capital of France?",
		Options: []string{"Paris", "Lyon", "Nice", "Rome"},
		Correct: "Paris",
		Points:  10,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return bank
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{QuestionSource: newBankWithCapitals(t)}
	cache := NewQuestionCache(newClient(mr), source, time.Minute)

	questions, err := cache.QuestionsFor(context.Background(), "Capitals")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 1 || questions[0].Correct != "Paris" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("quiz:Capitals:questions") {
		t.Fatalf("expected cache key to be set")
	}

	// Second call should hit cache, source not incremented.
	if _, err := cache.QuestionsFor(context.Background(), "Capitals"); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
}

func TestQuestionCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{QuestionSource: newBankWithCapitals(t)}
	cache := NewQuestionCache(newClient(mr), source, time.Minute)

	if _, err := cache.QuestionsFor(context.Background(), "Capitals"); err != nil {
		t.Fatalf("questions: %v", err)
	}
	cache.Invalidate(context.Background(), "Capitals")
	if mr.Exists("quiz:Capitals:questions") {
		t.Fatalf("expected cache key removed")
	}

	if _, err := cache.QuestionsFor(context.Background(), "Capitals"); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d", source.calls)
	}
}

func TestQuestionCacheSkipsUnknownQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{QuestionSource: newBankWithCapitals(t)}
	cache := NewQuestionCache(newClient(mr), source, time.Minute)

	questions, err := cache.QuestionsFor(context.Background(), "nope")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
	if mr.Exists("quiz:nope:questions") {
		t.Fatalf("unknown quiz must not be cached")
	}
}

func TestQuestionCacheConcurrentFills(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := app.NewQuestionBank(memory.NewDocStore())
	quizzes := []string{"Capitals", "Rivers", "Flags", "Mountains"}
	for _, quiz := range quizzes {
		_, err := bank.AddQuestion(context.Background(), quiz, domain.QuestionSpec{
			Text:    "Question for " + quiz + "?",
			Options: []string{"A", "B", "C", "D"},
			Correct: "A",
			Points:  5,
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	cache := NewQuestionCache(newClient(mr), bank, time.Minute)

	// Cold fills for distinct quizzes run their singleflight callbacks in
	// parallel, each computing a jittered TTL.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(quiz string) {
			defer wg.Done()
			questions, err := cache.QuestionsFor(context.Background(), quiz)
			if err != nil {
				t.Errorf("questions for %s: %v", quiz, err)
				return
			}
			if len(questions) != 1 {
				t.Errorf("expected 1 question for %s, got %d", quiz, len(questions))
			}
		}(quizzes[i%len(quizzes)])
	}
	wg.Wait()

	for _, quiz := range quizzes {
		if !mr.Exists("quiz:" + quiz + ":questions") {
			t.Fatalf("expected %s cached", quiz)
		}
	}
}

type countingSource struct {
	app.QuestionSource
	calls int
}

func (s *countingSource) QuestionsFor(ctx context.Context, quizName string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.QuestionsFor(ctx, quizName)
}
