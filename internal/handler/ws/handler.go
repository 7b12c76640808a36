// Package ws exposes the chat event stream over a websocket for clients
// that cannot consume SSE. The event vocabulary is identical.
package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/agent"
	chatService "github.com/zhouzirui/todo-tavern/backend/internal/service/chat"
)

// Handler WebSocket聊天处理器
type Handler struct {
	model         agent.ModelSource
	registry      agent.ToolDispatcher
	transcripts   *chatService.Service
	maxToolRounds int
	upgrader      websocket.Upgrader
}

// New 创建WebSocket处理器
func New(model agent.ModelSource, registry agent.ToolDispatcher, transcripts *chatService.Service, maxToolRounds int) *Handler {
	return &Handler{
		model:         model,
		registry:      registry,
		transcripts:   transcripts,
		maxToolRounds: maxToolRounds,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleSocket)
}

// chatRequest 与SSE端点的入站载荷一致。
type chatRequest struct {
	ID       string         `json:"id"`
	Messages []chat.Message `json:"messages"`
}

// handleSocket 读取一帧请求，流式回写事件帧，结束后持久化并关闭连接。
func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var payload chatRequest
	if err := conn.ReadJSON(&payload); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Printf("[ws] read error: %v", err)
		}
		return
	}

	if payload.ID == "" || len(payload.Messages) == 0 {
		h.writeClose(conn, "id and messages are required")
		return
	}
	if _, err := chat.ToModelMessages(payload.Messages); err != nil {
		h.writeClose(conn, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	orch := agent.New(h.model, h.registry, h.maxToolRounds)
	assistant, err := orch.Run(ctx, payload.Messages, func(ev agent.Event) {
		if writeErr := conn.WriteJSON(ev); writeErr != nil {
			// 连接已失效，取消编排，不再继续生成。
			cancel()
		}
	})
	if err != nil {
		log.Printf("[ws] stream failed for session=%s: %v", payload.ID, err)
		return
	}

	// 对端在 done 之后立即断开也不应丢掉已完成轮次的持久化。
	saveCtx := context.WithoutCancel(r.Context())
	if err := h.transcripts.SaveTranscript(saveCtx, payload.ID, append(payload.Messages, assistant)); err != nil {
		log.Printf("[ws] failed to persist transcript for session=%s: %v", payload.ID, err)
	}
}

func (h *Handler) writeClose(conn *websocket.Conn, reason string) {
	_ = conn.WriteJSON(agent.Event{Type: agent.EventError, Message: reason})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, reason))
}
