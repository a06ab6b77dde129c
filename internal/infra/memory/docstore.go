package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"quizdeck-service/internal/docstore"
)

// DocStore is an in-memory docstore.Store for tests and single-node runs.
// Documents are deep-copied on every read so callers holding a snapshot are
// isolated from later mutations.
type DocStore struct {
	mu          sync.Mutex
	seq         int64
	collections map[string][]*docstore.Document
}

func NewDocStore() *DocStore {
	return &DocStore{collections: make(map[string][]*docstore.Document)}
}

func (s *DocStore) Create(_ context.Context, collection string, doc docstore.Doc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := strconv.FormatInt(s.seq, 10)
	s.collections[collection] = append(s.collections[collection], &docstore.Document{
		ID:   id,
		Data: copyDoc(doc),
	})
	return id, nil
}

func (s *DocStore) Get(_ context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []docstore.Document
	for _, doc := range s.collections[collection] {
		if matches(doc.Data, filter) {
			out = append(out, docstore.Document{ID: doc.ID, Data: copyDoc(doc.Data)})
		}
	}
	return out, nil
}

func (s *DocStore) UpdateField(_ context.Context, collection, id string, path []string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.find(collection, id)
	if doc == nil {
		return docstore.ErrNoDocument
	}
	parent, err := descend(doc.Data, path)
	if err != nil {
		return err
	}
	parent[path[len(path)-1]] = value
	return nil
}

// IncrField is atomic under the store mutex: no increment can interleave
// with another read-modify-write of the same counter.
func (s *DocStore) IncrField(_ context.Context, collection, id string, path []string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.find(collection, id)
	if doc == nil {
		return docstore.ErrNoDocument
	}
	parent, err := descend(doc.Data, path)
	if err != nil {
		return err
	}
	key := path[len(path)-1]
	current, err := asInt64(parent[key])
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	parent[key] = current + delta
	return nil
}

func (s *DocStore) StreamAll(_ context.Context, collection string, fn func(docstore.Document) error) error {
	s.mu.Lock()
	snapshot := make([]docstore.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		snapshot = append(snapshot, docstore.Document{ID: doc.ID, Data: copyDoc(doc.Data)})
	}
	s.mu.Unlock()

	for _, doc := range snapshot {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *DocStore) find(collection, id string) *docstore.Document {
	for _, doc := range s.collections[collection] {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

// descend walks to the map holding the final path element, creating
// intermediate maps as needed.
func descend(data docstore.Doc, path []string) (map[string]any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty field path")
	}
	current := data
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			child := make(map[string]any)
			current[key] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q is not a map", key)
		}
		current = child
	}
	return current, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func matches(data docstore.Doc, filter docstore.Filter) bool {
	for key, want := range filter {
		if data[key] != want {
			return false
		}
	}
	return true
}

func copyDoc(doc docstore.Doc) docstore.Doc {
	out := make(docstore.Doc, len(doc))
	for key, value := range doc {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyDoc(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
