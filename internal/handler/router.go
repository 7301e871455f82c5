package handler

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	characterHandler "github.com/zhouzirui/chara-chat/backend/internal/handler/character"
	"github.com/zhouzirui/chara-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/chara-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/chara-chat/backend/internal/middleware"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	chatService "github.com/zhouzirui/chara-chat/backend/internal/service/chat"
	"github.com/zhouzirui/chara-chat/backend/pkg/utils"
)

// Deps collects what the router needs.
type Deps struct {
	Characters  character.Store
	Chat        *chatService.Service
	Responder   chatService.Responder
	AIAvailable bool
	CORSOrigins []string
	StaticDir   string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORSOrigins...))

	// Create handlers
	characters := characterHandler.New(deps.Characters)
	chatHandler := chat.New(deps.Chat, deps.Responder, deps.Characters)
	wsHandler := ws.New(deps.Chat, deps.Responder, deps.Characters, deps.CORSOrigins...)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{"status": "ok", "ai": deps.AIAvailable}
		if summaries, err := deps.Characters.List(); err == nil {
			status["characters"] = len(summaries)
		} else {
			status["characters"] = 0
			status["characterError"] = err.Error()
		}
		utils.RespondJSON(w, http.StatusOK, status)
	})

	r.Route("/api", func(api chi.Router) {
		characters.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(deps.StaticDir)))
		}
	}

	return r
}
