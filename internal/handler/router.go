package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/zhouzirui/todo-tavern/backend/internal/handler/chat"
	todoHandler "github.com/zhouzirui/todo-tavern/backend/internal/handler/todo"
	wsHandler "github.com/zhouzirui/todo-tavern/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/todo-tavern/backend/internal/middleware"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/agent"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/ai"
	chatService "github.com/zhouzirui/todo-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/tools"
	"github.com/zhouzirui/todo-tavern/backend/internal/store"
)

// NewRouter wires HTTP routes to core services. aiSvc may be nil when model
// credentials are absent; the CRUD and reload endpoints stay available.
func NewRouter(st *store.Store, owner store.OwnerResolver, registry *tools.Registry, aiSvc *ai.Service, transcripts *chatService.Service, maxToolRounds int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	var model agent.ModelSource
	if aiSvc != nil {
		model = aiSvc
	}

	todos := todoHandler.New(st, owner)
	chats := chatHandler.New(model, registry, transcripts, maxToolRounds)

	r.Route("/api", func(api chi.Router) {
		todos.RegisterRoutes(api)
		chats.RegisterRoutes(api)

		if model != nil {
			sockets := wsHandler.New(model, registry, transcripts, maxToolRounds)
			sockets.RegisterRoutes(api)
		}
	})

	return r
}
