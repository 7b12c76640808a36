package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
)

// OwnerResolver yields the user that new todos are attached to when the
// caller supplies none. The fallback implementation below stands in for real
// identity; swap it out once authentication exists.
type OwnerResolver interface {
	Resolve(ctx context.Context) (todo.User, error)
}

// FallbackOwner resolves the first stored user, lazily creating a configured
// default user when the table is empty.
type FallbackOwner struct {
	store *Store
	email string
	name  string
}

// NewFallbackOwner builds the resolver around the configured constant owner.
func NewFallbackOwner(s *Store, email, name string) *FallbackOwner {
	return &FallbackOwner{store: s, email: email, name: name}
}

// Resolve implements OwnerResolver.
func (f *FallbackOwner) Resolve(ctx context.Context) (todo.User, error) {
	user, err := f.store.FindFirstUser(ctx)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return todo.User{}, err
	}
	return f.store.CreateUser(ctx, f.email, f.name)
}

// FindFirstUser returns the oldest stored user.
func (s *Store) FindFirstUser(ctx context.Context) (todo.User, error) {
	var u todo.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name FROM users ORDER BY created_at ASC, rowid ASC LIMIT 1`,
	).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.User{}, ErrNotFound
	}
	if err != nil {
		return todo.User{}, fmt.Errorf("find first user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user record.
func (s *Store) CreateUser(ctx context.Context, email, name string) (todo.User, error) {
	u := todo.User{ID: uuid.NewString(), Email: email, Name: name}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`, u.ID, u.Email, u.Name)
	if err != nil {
		return todo.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
