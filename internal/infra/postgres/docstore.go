package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizdeck-service/internal/docstore"
)

// DocStore implements docstore.Store over a single jsonb documents table.
// IncrField is one UPDATE statement, so concurrent vote increments on the
// same row serialize inside Postgres and none are lost.
type DocStore struct {
	pool *pgxpool.Pool
}

func NewDocStore(pool *pgxpool.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (s *DocStore) Create(ctx context.Context, collection string, doc docstore.Doc) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, collection, data) VALUES ($1, $2, $3::jsonb)`,
		id, collection, string(data))
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

func (s *DocStore) Get(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	match, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY ord`,
		collection, string(match))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *DocStore) UpdateField(ctx context.Context, collection, id string, path []string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = jsonb_set(data, $3, $4::jsonb, true) WHERE collection = $1 AND id = $2`,
		collection, id, path, string(data))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNoDocument
	}
	return nil
}

func (s *DocStore) IncrField(ctx context.Context, collection, id string, path []string, delta int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET data = jsonb_set(data, $3, to_jsonb(COALESCE((data #>> $3)::bigint, 0) + $4), true)
		 WHERE collection = $1 AND id = $2`,
		collection, id, path, delta)
	if err != nil {
		return fmt.Errorf("increment %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNoDocument
	}
	return nil
}

func (s *DocStore) StreamAll(ctx context.Context, collection string, fn func(docstore.Document) error) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY ord`, collection)
	if err != nil {
		return fmt.Errorf("stream %s: %w", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanDocument(scan func(...any) error) (docstore.Document, error) {
	var id string
	var raw []byte
	if err := scan(&id, &raw); err != nil {
		return docstore.Document{}, fmt.Errorf("scan document: %w", err)
	}
	var data docstore.Doc
	if err := json.Unmarshal(raw, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}
