// Package auth is the identity collaborator: it registers users and turns
// credentials into a UserIdentity. Hashing, sessions, and tokens are out of
// scope here; the quiz core only ever sees the resulting identity.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizdeck-service/internal/docstore"
	"quizdeck-service/internal/domain"
)

const usersCollection = "users"

// RoleAdmin and RoleUser are the two roles the original system knows.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Register creates a user account. Fails with ErrUsernameTaken on
// duplicates and ErrValidation on blank fields or unknown roles.
func (s *Service) Register(ctx context.Context, username, password, role string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if role != RoleAdmin && role != RoleUser {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	existing, err := s.store.Get(ctx, usersCollection, docstore.Filter{"username": username})
	if err != nil {
		return fmt.Errorf("%w: lookup user: %w", domain.ErrStorage, err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %q", domain.ErrUsernameTaken, username)
	}

	_, err = s.store.Create(ctx, usersCollection, docstore.Doc{
		"username":   username,
		"password":   password,
		"role":       role,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: create user: %w", domain.ErrStorage, err)
	}
	return nil
}

// Authenticate resolves credentials into a UserIdentity or fails with
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.UserIdentity, error) {
	docs, err := s.store.Get(ctx, usersCollection, docstore.Filter{
		"username": username,
		"password": password,
	})
	if err != nil {
		return domain.UserIdentity{}, fmt.Errorf("%w: lookup user: %w", domain.ErrStorage, err)
	}
	if len(docs) == 0 {
		return domain.UserIdentity{}, domain.ErrInvalidCredentials
	}
	role, _ := docs[0].Data["role"].(string)
	return domain.UserIdentity{Username: username, Role: role}, nil
}
