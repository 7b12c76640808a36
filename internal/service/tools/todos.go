package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
	"github.com/zhouzirui/todo-tavern/backend/internal/store"
)

const notFoundMessage = "未找到该待办"

// todoTools 定义固定的四个待办工具。
func todoTools(s TodoStore, owner OwnerResolver) []registration {
	return []registration{
		{
			name: "add_todo",
			desc: "添加待办事项",
			params: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"title": {Type: schema.String, Desc: "待办标题，不能为空", Required: true},
			}),
			inputSchema: `{
				"type": "object",
				"properties": {"title": {"type": "string", "minLength": 1}},
				"required": ["title"],
				"additionalProperties": false
			}`,
			handler: addTodo(s, owner),
		},
		{
			name: "list_todos",
			desc: `列出待办事项。filter 不传或传 "all" 返回所有待办（包括已完成和未完成的）；传 "completed" 只返回已完成的；传 "incomplete" 只返回未完成的。`,
			params: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"filter": {Type: schema.String, Desc: "筛选范围", Enum: []string{"all", "completed", "incomplete"}},
			}),
			inputSchema: `{
				"type": "object",
				"properties": {"filter": {"type": "string", "enum": ["all", "completed", "incomplete"]}},
				"additionalProperties": false
			}`,
			handler: listTodos(s),
		},
		{
			name: "toggle_todo",
			desc: "切换待办事项完成状态",
			params: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id": {Type: schema.String, Desc: "待办 ID", Required: true},
			}),
			inputSchema: `{
				"type": "object",
				"properties": {"id": {"type": "string", "minLength": 1}},
				"required": ["id"],
				"additionalProperties": false
			}`,
			handler: toggleTodo(s),
		},
		{
			name: "delete_todo",
			desc: "删除待办事项",
			params: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id": {Type: schema.String, Desc: "待办 ID", Required: true},
			}),
			inputSchema: `{
				"type": "object",
				"properties": {"id": {"type": "string", "minLength": 1}},
				"required": ["id"],
				"additionalProperties": false
			}`,
			handler: deleteTodo(s),
		},
	}
}

func addTodo(s TodoStore, owner OwnerResolver) Handler {
	return func(ctx context.Context, input json.RawMessage) Output {
		var args struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return Output{Kind: KindError, Message: fmt.Sprintf("解析参数失败: %v", err)}
		}

		user, err := owner.Resolve(ctx)
		if err != nil {
			log.Printf("[tools] resolve owner: %v", err)
			return Output{Kind: KindError, Message: "无法确定待办归属用户"}
		}

		created, err := s.CreateTodo(ctx, args.Title, user.ID)
		if err != nil {
			log.Printf("[tools] add_todo: %v", err)
			return Output{Kind: KindError, Message: "创建待办失败"}
		}

		return Output{Kind: KindMutation, Message: "已添加：" + created.Title, ID: created.ID}
	}
}

func listTodos(s TodoStore) Handler {
	return func(ctx context.Context, input json.RawMessage) Output {
		var args struct {
			Filter todo.Filter `json:"filter"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return Output{Kind: KindError, Message: fmt.Sprintf("解析参数失败: %v", err)}
		}
		if args.Filter == "" {
			args.Filter = todo.FilterAll
		}

		todos, err := s.ListTodos(ctx, args.Filter)
		if err != nil {
			log.Printf("[tools] list_todos: %v", err)
			return Output{Kind: KindError, Message: "查询待办失败"}
		}

		items := make([]todo.Summary, 0, len(todos))
		for _, t := range todos {
			items = append(items, t.Summarize())
		}
		return Output{Kind: KindList, Items: items}
	}
}

func toggleTodo(s TodoStore) Handler {
	return func(ctx context.Context, input json.RawMessage) Output {
		var args struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return Output{Kind: KindError, Message: fmt.Sprintf("解析参数失败: %v", err)}
		}

		current, err := s.GetTodo(ctx, args.ID)
		if errors.Is(err, store.ErrNotFound) {
			return Output{Kind: KindError, Message: notFoundMessage, ID: args.ID}
		}
		if err != nil {
			log.Printf("[tools] toggle_todo: %v", err)
			return Output{Kind: KindError, Message: "查询待办失败", ID: args.ID}
		}

		updated, err := s.SetTodoCompleted(ctx, args.ID, !current.Completed)
		if err != nil {
			log.Printf("[tools] toggle_todo: %v", err)
			return Output{Kind: KindError, Message: "更新待办失败", ID: args.ID}
		}

		message := "已取消完成"
		if updated.Completed {
			message = "已完成"
		}
		completed := updated.Completed
		return Output{Kind: KindMutation, Message: message, ID: updated.ID, Completed: &completed}
	}
}

func deleteTodo(s TodoStore) Handler {
	return func(ctx context.Context, input json.RawMessage) Output {
		var args struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return Output{Kind: KindError, Message: fmt.Sprintf("解析参数失败: %v", err)}
		}

		err := s.DeleteTodo(ctx, args.ID)
		if errors.Is(err, store.ErrNotFound) {
			return Output{Kind: KindError, Message: notFoundMessage, ID: args.ID}
		}
		if err != nil {
			log.Printf("[tools] delete_todo: %v", err)
			return Output{Kind: KindError, Message: "删除待办失败", ID: args.ID}
		}

		return Output{Kind: KindMutation, Message: "已删除", ID: args.ID}
	}
}
