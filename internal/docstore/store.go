// Package docstore defines the document-store collaborator contract the
// question catalog, result log, and user registry are built on.
package docstore

import (
	"context"
	"errors"
)

// ErrNoDocument is returned by UpdateField and IncrField when no document
// with the given id exists in the collection.
var ErrNoDocument = errors.New("docstore: no such document")

// Doc is a schemaless document body. Values are restricted to what survives
// a JSON round trip: strings, numbers, bools, nested maps and slices.
type Doc = map[string]any

// Filter matches documents by equality on top-level fields.
type Filter = map[string]any

// Document pairs a stored body with its store-assigned id.
type Document struct {
	ID   string
	Data Doc
}

// Store is the minimal document-store surface. Implementations must make
// IncrField an indivisible read-increment-write: it is the primitive that
// keeps concurrent vote recording from losing updates.
type Store interface {
	// Create appends a document to a collection and returns its id.
	// Insertion order is preserved and reflected by Get and StreamAll.
	Create(ctx context.Context, collection string, doc Doc) (string, error)
	// Get returns all documents matching the filter, in insertion order.
	Get(ctx context.Context, collection string, filter Filter) ([]Document, error)
	// UpdateField sets the field at path on one document.
	UpdateField(ctx context.Context, collection, id string, path []string, value any) error
	// IncrField atomically adds delta to the integer field at path.
	IncrField(ctx context.Context, collection, id string, path []string, delta int64) error
	// StreamAll visits every document in the collection in insertion order,
	// stopping early if fn returns an error.
	StreamAll(ctx context.Context, collection string, fn func(Document) error) error
}
