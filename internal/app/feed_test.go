package app_test

import (
	"strconv"
	"sync"
	"testing"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

func TestFeedInitialArrivesBeforeConcurrentPublishes(t *testing.T) {
	feed := app.NewLeaderboardFeed()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				feed.Publish("Capitals", domain.Leaderboard{QuizName: "fresh"})
			}
		}
	}()

	for i := 0; i < 200; i++ {
		ch, cancel := feed.Subscribe("Capitals", domain.Leaderboard{QuizName: "initial"})
		first := <-ch
		if first.QuizName != "initial" {
			cancel()
			close(stop)
			wg.Wait()
			t.Fatalf("iteration %d: got %q before the initial snapshot", i, first.QuizName)
		}
		cancel()
	}
	close(stop)
	wg.Wait()
}

func TestFeedDropsStaleForSlowSubscriber(t *testing.T) {
	feed := app.NewLeaderboardFeed()
	ch, cancel := feed.Subscribe("Capitals", domain.Leaderboard{QuizName: "0"})
	defer cancel()

	// No reader while publishing; older snapshots are displaced.
	for i := 1; i <= 20; i++ {
		feed.Publish("Capitals", domain.Leaderboard{QuizName: strconv.Itoa(i)})
	}

	var last domain.Leaderboard
	var received int
	for {
		select {
		case lb := <-ch:
			last = lb
			received++
			continue
		default:
		}
		break
	}
	if last.QuizName != "20" {
		t.Fatalf("expected latest snapshot last, got %q", last.QuizName)
	}
	if received > 8 {
		t.Fatalf("expected at most the channel buffer, got %d", received)
	}
}
