package memory

import (
	"sync"

	"quizdeck-service/internal/app"
)

// DraftStore keeps one draft builder per admin and serializes access to it,
// implementing app.DraftRegistry.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*draftEntry
}

type draftEntry struct {
	mu      sync.Mutex
	builder *app.DraftBuilder
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*draftEntry)}
}

func (s *DraftStore) Do(username string, fn func(*app.DraftBuilder) error) error {
	s.mu.Lock()
	entry, ok := s.drafts[username]
	if !ok {
		entry = &draftEntry{builder: app.NewDraftBuilder()}
		s.drafts[username] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.builder)
}
