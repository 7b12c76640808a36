// Package tools implements the fixed registry of todo tools the model may
// invoke mid-conversation. Inputs are schema-validated before execution, and
// every outcome (validation failures and missing records included) is
// returned as a serializable output the model can read and recover from.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
)

// Output 标签，消费方按 Kind 分支而不是探测结构。
const (
	KindMutation = "mutation"
	KindList     = "list"
	KindError    = "error"
)

// Output is the tagged union every tool resolves to. It is always a finite
// JSON value; Kind decides which of the remaining fields are set.
type Output struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message,omitempty"`
	ID        string         `json:"id,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
	Items     []todo.Summary `json:"items,omitempty"`
}

// Handler executes one validated tool invocation.
type Handler func(ctx context.Context, input json.RawMessage) Output

// Tool couples a tool's model-facing schema with its input validator and
// handler.
type Tool struct {
	Name        string
	Desc        string
	Params      *schema.ParamsOneOf
	inputSchema *gojsonschema.Schema
	handler     Handler
}

// Registry is the fixed tool set consulted by the orchestrator.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// TodoStore is the slice of the record store the todo tools operate on.
// Defined here so tests can substitute an in-memory fake.
type TodoStore interface {
	CreateTodo(ctx context.Context, title, userID string) (todo.Todo, error)
	GetTodo(ctx context.Context, id string) (todo.Todo, error)
	ListTodos(ctx context.Context, filter todo.Filter) ([]todo.Todo, error)
	SetTodoCompleted(ctx context.Context, id string, completed bool) (todo.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// OwnerResolver supplies the owner new todos are attached to.
type OwnerResolver interface {
	Resolve(ctx context.Context) (todo.User, error)
}

// New builds the registry over the todo store and owner resolver.
func New(store TodoStore, owner OwnerResolver) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range todoTools(store, owner) {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t registration) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(t.inputSchema))
	if err != nil {
		return fmt.Errorf("compile input schema for %s: %w", t.name, err)
	}
	r.tools[t.name] = &Tool{
		Name:        t.name,
		Desc:        t.desc,
		Params:      t.params,
		inputSchema: compiled,
		handler:     t.handler,
	}
	r.order = append(r.order, t.name)
	return nil
}

// ToolInfos returns the model-facing schemas in registration order.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		infos = append(infos, &schema.ToolInfo{
			Name:        t.Name,
			Desc:        t.Desc,
			ParamsOneOf: t.Params,
		})
	}
	return infos
}

// Dispatch validates and executes one tool invocation. It never fails the
// stream: unknown tools, invalid inputs and store-level errors all come back
// as error-kind outputs for the model to self-correct on.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) Output {
	t, ok := r.tools[name]
	if !ok {
		return Output{Kind: KindError, Message: fmt.Sprintf("未知工具 %q", name)}
	}

	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	result, err := t.inputSchema.Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		return Output{Kind: KindError, Message: fmt.Sprintf("参数不是有效的 JSON: %v", err)}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		log.Printf("[tools] %s rejected input: %s", name, strings.Join(reasons, "; "))
		return Output{Kind: KindError, Message: "参数校验失败: " + strings.Join(reasons, "; ")}
	}

	return t.handler(ctx, input)
}

// registration is the declarative form tools are defined in.
type registration struct {
	name        string
	desc        string
	params      *schema.ParamsOneOf
	inputSchema string
	handler     Handler
}
