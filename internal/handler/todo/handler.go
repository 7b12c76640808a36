package todo

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/todo"
	"github.com/zhouzirui/todo-tavern/backend/internal/store"
	"github.com/zhouzirui/todo-tavern/backend/pkg/utils"
)

// Store is the record-store slice the CRUD endpoints need.
type Store interface {
	CreateTodo(ctx context.Context, title, userID string) (todo.Todo, error)
	ListTodos(ctx context.Context, filter todo.Filter) ([]todo.Todo, error)
	UpdateTodo(ctx context.Context, id string, title *string, completed *bool) (todo.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Handler 待办CRUD的HTTP处理器，与聊天工具共用同一存储。
type Handler struct {
	store Store
	owner store.OwnerResolver
}

// New 创建待办处理器
func New(s Store, owner store.OwnerResolver) *Handler {
	return &Handler{store: s, owner: owner}
}

// RegisterRoutes 注册待办相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

// handleList 返回全部待办，最新在前。
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.ListTodos(r.Context(), todo.FilterAll)
	if err != nil {
		log.Printf("[todo] list failed: %v", err)
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]any{"todos": []todo.Todo{}})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

// handleCreate 创建待办；未提供 userId 时归属兜底用户。
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title  string `json:"title"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Title) == "" {
		utils.RespondError(w, http.StatusBadRequest, "标题不能为空")
		return
	}

	userID := payload.UserID
	if userID == "" {
		user, err := h.owner.Resolve(r.Context())
		if err != nil {
			log.Printf("[todo] resolve owner failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "创建待办事项失败")
			return
		}
		userID = user.ID
	}

	created, err := h.store.CreateTodo(r.Context(), payload.Title, userID)
	if err != nil {
		log.Printf("[todo] create failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "创建待办事项失败")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{"todo": created})
}

// handleUpdate 局部更新待办（完成状态或标题）。
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload struct {
		Completed *bool   `json:"completed"`
		Title     *string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.UpdateTodo(r.Context(), id, payload.Title, payload.Completed)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "待办不存在")
		return
	}
	if err != nil {
		log.Printf("[todo] update failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "更新待办事项失败")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"todo": updated})
}

// handleDelete 删除待办。
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.DeleteTodo(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "待办不存在")
		return
	}
	if err != nil {
		log.Printf("[todo] delete failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "删除待办事项失败")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
