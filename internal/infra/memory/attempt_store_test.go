package memory

import (
	"context"
	"sync"
	"testing"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

func startAttempt(t *testing.T) *app.Attempt {
	t.Helper()
	store := NewDocStore()
	bank := app.NewQuestionBank(store)
	ctx := context.Background()
	_, err := bank.AddQuestion(ctx, "Capitals", domain.QuestionSpec{
		Text:    "Capital of France?",
		Options: []string{"Paris", "Lyon", "Nice", "Rome"},
		Correct: "Paris",
		Points:  10,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	attempt, err := app.StartAttempt(ctx, "Capitals", domain.UserIdentity{Username: "alice"}, bank)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return attempt
}

func TestAttemptStorePutGetDelete(t *testing.T) {
	store := NewAttemptStore()
	attempt := startAttempt(t)

	store.Put(attempt)
	got, ok := store.Get(attempt.ID)
	if !ok || got.ID != attempt.ID {
		t.Fatalf("expected stored attempt, got %v ok=%v", got, ok)
	}

	store.Delete(attempt.ID)
	if _, ok := store.Get(attempt.ID); ok {
		t.Fatal("expected attempt gone after delete")
	}
}

func TestAttemptStoreTakeClaimsOnce(t *testing.T) {
	store := NewAttemptStore()
	attempt := startAttempt(t)
	store.Put(attempt)

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Take(attempt.ID); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var won int
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one claim, got %d", won)
	}
	if _, ok := store.Get(attempt.ID); ok {
		t.Fatal("expected attempt removed after take")
	}
}
