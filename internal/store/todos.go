package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
)

// CreateTodo inserts a new todo owned by userID.
func (s *Store) CreateTodo(ctx context.Context, title, userID string) (todo.Todo, error) {
	t := todo.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, completed, user_id, created_at) VALUES (?, ?, 0, ?, ?)`,
		t.ID, t.Title, t.UserID, formatTime(t.CreatedAt),
	)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// GetTodo looks up a todo by identifier.
func (s *Store) GetTodo(ctx context.Context, id string) (todo.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, completed, user_id, created_at FROM todos WHERE id = ?`, id)

	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Todo{}, ErrNotFound
	}
	if err != nil {
		return todo.Todo{}, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

// ListTodos returns todos matching filter, newest first.
func (s *Store) ListTodos(ctx context.Context, filter todo.Filter) ([]todo.Todo, error) {
	query := `SELECT id, title, completed, user_id, created_at FROM todos`
	switch filter {
	case todo.FilterCompleted:
		query += ` WHERE completed = 1`
	case todo.FilterIncomplete:
		query += ` WHERE completed = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]todo.Todo, 0, 16)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// SetTodoCompleted flips or sets the completed flag of one todo.
func (s *Store) SetTodoCompleted(ctx context.Context, id string, completed bool) (todo.Todo, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET completed = ? WHERE id = ?`, boolToInt(completed), id)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return todo.Todo{}, ErrNotFound
	}
	return s.GetTodo(ctx, id)
}

// UpdateTodo applies a partial update (title and/or completed). Nil fields
// are left untouched.
func (s *Store) UpdateTodo(ctx context.Context, id string, title *string, completed *bool) (todo.Todo, error) {
	current, err := s.GetTodo(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}

	if title != nil {
		current.Title = *title
	}
	if completed != nil {
		current.Completed = *completed
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, completed = ? WHERE id = ?`,
		current.Title, boolToInt(current.Completed), id)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	return current, nil
}

// DeleteTodo removes a todo; ErrNotFound when the id does not exist.
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (todo.Todo, error) {
	var (
		t         todo.Todo
		completed int
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &completed, &t.UserID, &createdAt); err != nil {
		return todo.Todo{}, err
	}
	t.Completed = completed != 0
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = parsed
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
