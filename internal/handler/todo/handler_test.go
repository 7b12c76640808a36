package todo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	todoHandler "github.com/zhouzirui/todo-tavern/backend/internal/handler/todo"
	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
	"github.com/zhouzirui/todo-tavern/backend/internal/store"
)

type fakeStore struct {
	todos   map[string]todo.Todo
	created []todo.Todo
}

func newFakeStore() *fakeStore {
	return &fakeStore{todos: make(map[string]todo.Todo)}
}

func (f *fakeStore) CreateTodo(_ context.Context, title, userID string) (todo.Todo, error) {
	t := todo.Todo{ID: "t1", Title: title, UserID: userID, CreatedAt: time.Now()}
	f.todos[t.ID] = t
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeStore) ListTodos(context.Context, todo.Filter) ([]todo.Todo, error) {
	out := make([]todo.Todo, 0, len(f.todos))
	for _, t := range f.todos {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) UpdateTodo(_ context.Context, id string, title *string, completed *bool) (todo.Todo, error) {
	t, ok := f.todos[id]
	if !ok {
		return todo.Todo{}, store.ErrNotFound
	}
	if title != nil {
		t.Title = *title
	}
	if completed != nil {
		t.Completed = *completed
	}
	f.todos[id] = t
	return t, nil
}

func (f *fakeStore) DeleteTodo(_ context.Context, id string) error {
	if _, ok := f.todos[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.todos, id)
	return nil
}

type fakeOwner struct{}

func (fakeOwner) Resolve(context.Context) (todo.User, error) {
	return todo.User{ID: "owner-1"}, nil
}

func newTestRouter(s *fakeStore) http.Handler {
	h := todoHandler.New(s, fakeOwner{})
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateTodoFallsBackToOwner(t *testing.T) {
	s := newFakeStore()
	rec := do(t, newTestRouter(s), http.MethodPost, "/api/todos/", `{"title":"买牛奶"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(s.created) != 1 || s.created[0].UserID != "owner-1" {
		t.Fatalf("expected todo owned by fallback user, got %+v", s.created)
	}

	var payload struct {
		Todo todo.Todo `json:"todo"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Todo.Title != "买牛奶" {
		t.Fatalf("unexpected todo: %+v", payload.Todo)
	}
}

func TestCreateTodoRejectsBlankTitle(t *testing.T) {
	s := newFakeStore()
	rec := do(t, newTestRouter(s), http.MethodPost, "/api/todos/", `{"title":"   "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(s.created) != 0 {
		t.Fatalf("blank title must not create, got %+v", s.created)
	}
}

func TestListTodosShape(t *testing.T) {
	s := newFakeStore()
	s.todos["a"] = todo.Todo{ID: "a", Title: "one"}

	rec := do(t, newTestRouter(s), http.MethodGet, "/api/todos/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var payload struct {
		Todos []todo.Todo `json:"todos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Todos) != 1 || payload.Todos[0].ID != "a" {
		t.Fatalf("unexpected todos: %+v", payload.Todos)
	}
}

func TestUpdateTodo(t *testing.T) {
	s := newFakeStore()
	s.todos["a"] = todo.Todo{ID: "a", Title: "one"}

	rec := do(t, newTestRouter(s), http.MethodPatch, "/api/todos/a", `{"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !s.todos["a"].Completed {
		t.Fatalf("expected todo marked complete, got %+v", s.todos["a"])
	}

	rec = do(t, newTestRouter(s), http.MethodPatch, "/api/todos/missing", `{"completed":true}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing todo, got %d", rec.Code)
	}
}

func TestDeleteTodo(t *testing.T) {
	s := newFakeStore()
	s.todos["a"] = todo.Todo{ID: "a", Title: "one"}
	router := newTestRouter(s)

	rec := do(t, router, http.MethodDelete, "/api/todos/a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var payload map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload["success"] {
		t.Fatalf("expected success true, got %v", payload)
	}

	rec = do(t, router, http.MethodDelete, "/api/todos/a", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}
