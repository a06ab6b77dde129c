package app

import (
	"sync"

	"quizdeck-service/internal/domain"
)

// LeaderboardFeed fans out fresh leaderboard snapshots to live subscribers,
// one subscription group per quiz.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel receiving leaderboard snapshots for a quiz,
// primed with the initial snapshot. The caller must invoke the returned
// cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(quizName string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	group, ok := f.subscribers[quizName]
	if !ok {
		group = make(map[chan domain.Leaderboard]struct{})
		f.subscribers[quizName] = group
	}
	group[ch] = struct{}{}
	// Send the initial snapshot under the lock so a concurrent Publish
	// cannot get ahead of it; the buffered send never blocks here.
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if group, ok := f.subscribers[quizName]; ok {
			if _, live := group[ch]; live {
				delete(group, ch)
				close(ch)
			}
			if len(group) == 0 {
				delete(f.subscribers, quizName)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish pushes a snapshot to every subscriber of the quiz. A slow
// subscriber has its stale snapshot dropped rather than blocking the rest.
func (f *LeaderboardFeed) Publish(quizName string, lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[quizName] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
