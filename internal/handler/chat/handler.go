package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/agent"
	chatService "github.com/zhouzirui/todo-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/todo-tavern/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	model         agent.ModelSource
	registry      agent.ToolDispatcher
	transcripts   *chatService.Service
	maxToolRounds int
}

// New 创建聊天处理器。model 为 nil 时聊天端点返回 503，消息查询仍然可用。
func New(model agent.ModelSource, registry agent.ToolDispatcher, transcripts *chatService.Service, maxToolRounds int) *Handler {
	return &Handler{
		model:         model,
		registry:      registry,
		transcripts:   transcripts,
		maxToolRounds: maxToolRounds,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/messages", h.handleListMessages)
}

// chatRequest 是入站载荷：完整线上格式转写加会话标识。
type chatRequest struct {
	ID       string         `json:"id"`
	Messages []chat.Message `json:"messages"`
}

// handleChat 以SSE形式下发编排事件流，结束后持久化尾部窗口。
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}

	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ID == "" {
		utils.RespondError(w, http.StatusBadRequest, "id is required")
		return
	}
	if len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "messages is required")
		return
	}

	// 结构不合法的转写在进入编排前拒绝。
	if _, err := chat.ToModelMessages(payload.Messages); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	orch := agent.New(h.model, h.registry, h.maxToolRounds)
	assistant, err := orch.Run(r.Context(), payload.Messages, func(ev agent.Event) {
		utils.SendSSEChunk(w, flusher, ev)
	})
	if err != nil {
		// 终止性错误事件（若有）已经下发；失败的轮次不持久化。
		if r.Context().Err() == nil {
			log.Printf("[chat] stream failed for session=%s: %v", payload.ID, err)
		}
		return
	}

	// 客户端读完 done 就断开也不应丢掉已完成轮次的持久化。
	saveCtx := context.WithoutCancel(r.Context())
	if err := h.transcripts.SaveTranscript(saveCtx, payload.ID, append(payload.Messages, assistant)); err != nil {
		// 响应已完整下发，持久化失败只记录。
		log.Printf("[chat] failed to persist transcript for session=%s: %v", payload.ID, err)
	}
}

// handleListMessages 返回线上格式的历史消息，角色转为小写。
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	messages, err := h.transcripts.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] failed to load messages: %v", err)
		utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": []chat.Message{}})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
