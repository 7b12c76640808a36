package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zhouzirui/todo-tavern/backend/internal/service/tools"
)

func TestAddTodoCreatesUnderFallbackOwner(t *testing.T) {
	s := newFakeStore()
	owner := &fakeOwner{}
	r, err := tools.New(s, owner)
	if err != nil {
		t.Fatalf("tools.New err: %v", err)
	}

	out := r.Dispatch(context.Background(), "add_todo", json.RawMessage(`{"title":"买牛奶"}`))
	if out.Kind != tools.KindMutation {
		t.Fatalf("expected mutation output, got %+v", out)
	}
	if out.ID == "" {
		t.Fatal("expected created id in output")
	}
	if !strings.Contains(out.Message, "买牛奶") {
		t.Fatalf("expected title in message, got %q", out.Message)
	}
	if owner.resolved != 1 {
		t.Fatalf("expected owner resolved once, got %d", owner.resolved)
	}
	if s.todos["todo-new"].UserID != "u1" {
		t.Fatalf("todo not attached to resolved owner: %+v", s.todos["todo-new"])
	}
}

func TestAddTodoEmptyTitleFailsBeforeMutation(t *testing.T) {
	s := newFakeStore()
	r := newRegistry(t, s)

	out := r.Dispatch(context.Background(), "add_todo", json.RawMessage(`{"title":""}`))
	if out.Kind != tools.KindError {
		t.Fatalf("expected validation error, got %+v", out)
	}
	if s.creates != 0 {
		t.Fatalf("no record may be created on invalid input, got %d creates", s.creates)
	}
}

func TestListTodosFilters(t *testing.T) {
	s := newFakeStore()
	s.seed("first", true)
	s.seed("second", false)
	s.seed("third", true)
	r := newRegistry(t, s)

	cases := []struct {
		name      string
		input     string
		wantLen   int
		completed *bool
	}{
		{"all", `{"filter":"all"}`, 3, nil},
		{"omitted", `{}`, 3, nil},
		{"completed", `{"filter":"completed"}`, 2, boolPtr(true)},
		{"incomplete", `{"filter":"incomplete"}`, 1, boolPtr(false)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := r.Dispatch(context.Background(), "list_todos", json.RawMessage(tc.input))
			if out.Kind != tools.KindList {
				t.Fatalf("expected list output, got %+v", out)
			}
			if len(out.Items) != tc.wantLen {
				t.Fatalf("expected %d items, got %d", tc.wantLen, len(out.Items))
			}
			for _, item := range out.Items {
				if tc.completed != nil && item.Completed != *tc.completed {
					t.Fatalf("filter %s returned item %+v", tc.name, item)
				}
			}
		})
	}
}

func TestListTodosNewestFirst(t *testing.T) {
	s := newFakeStore()
	s.seed("oldest", false)
	s.seed("middle", false)
	s.seed("newest", false)
	r := newRegistry(t, s)

	out := r.Dispatch(context.Background(), "list_todos", json.RawMessage(`{}`))
	if len(out.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out.Items))
	}
	if out.Items[0].Title != "newest" || out.Items[2].Title != "oldest" {
		t.Fatalf("expected newest-first ordering, got %+v", out.Items)
	}
}

func TestListTodosRejectsUnknownFilter(t *testing.T) {
	r := newRegistry(t, newFakeStore())

	out := r.Dispatch(context.Background(), "list_todos", json.RawMessage(`{"filter":"done"}`))
	if out.Kind != tools.KindError {
		t.Fatalf("expected validation error, got %+v", out)
	}
}

func TestToggleTodoIsItsOwnInverse(t *testing.T) {
	s := newFakeStore()
	seeded := s.seed("task", false)
	r := newRegistry(t, s)

	input := json.RawMessage(`{"id":"` + seeded.ID + `"}`)

	first := r.Dispatch(context.Background(), "toggle_todo", input)
	if first.Kind != tools.KindMutation || first.Completed == nil || !*first.Completed {
		t.Fatalf("expected completed=true after first toggle, got %+v", first)
	}

	second := r.Dispatch(context.Background(), "toggle_todo", input)
	if second.Kind != tools.KindMutation || second.Completed == nil || *second.Completed {
		t.Fatalf("expected completed=false after second toggle, got %+v", second)
	}
	if s.todos[seeded.ID].Completed != seeded.Completed {
		t.Fatal("double toggle must restore the original completed value")
	}
}

func TestToggleTodoMissingIDIsRecoverable(t *testing.T) {
	r := newRegistry(t, newFakeStore())

	out := r.Dispatch(context.Background(), "toggle_todo", json.RawMessage(`{"id":"ghost"}`))
	if out.Kind != tools.KindError {
		t.Fatalf("expected not-found error output, got %+v", out)
	}
	if out.ID != "ghost" {
		t.Fatalf("expected echoed id, got %q", out.ID)
	}
	if out.Completed != nil {
		t.Fatal("not-found output must not carry a completed flag")
	}
}

func TestDeleteTodo(t *testing.T) {
	s := newFakeStore()
	seeded := s.seed("task", false)
	r := newRegistry(t, s)

	out := r.Dispatch(context.Background(), "delete_todo", json.RawMessage(`{"id":"`+seeded.ID+`"}`))
	if out.Kind != tools.KindMutation {
		t.Fatalf("expected mutation output, got %+v", out)
	}
	if _, ok := s.todos[seeded.ID]; ok {
		t.Fatal("todo should be gone after delete")
	}
}

func TestDeleteTodoMissingIDIsRecoverable(t *testing.T) {
	r := newRegistry(t, newFakeStore())

	out := r.Dispatch(context.Background(), "delete_todo", json.RawMessage(`{"id":"ghost"}`))
	if out.Kind != tools.KindError {
		t.Fatalf("expected not-found error output, got %+v", out)
	}
	if out.ID != "ghost" {
		t.Fatalf("expected echoed id, got %q", out.ID)
	}
}

func boolPtr(b bool) *bool { return &b }
