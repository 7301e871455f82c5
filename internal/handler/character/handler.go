package character

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	"github.com/zhouzirui/chara-chat/backend/pkg/utils"
)

// Handler 角色列表的HTTP处理器
type Handler struct {
	characters character.Store
}

// New 创建角色处理器
func New(characters character.Store) *Handler {
	return &Handler{
		characters: characters,
	}
}

// RegisterRoutes 注册角色相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/characters", h.handleListCharacters)
}

// handleListCharacters 列出所有角色；加载失败时返回空列表和500
func (h *Handler) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.characters.List()
	if err != nil {
		log.Printf("[character] list failed: %v", err)
		utils.RespondJSON(w, http.StatusInternalServerError, []character.Summary{})
		return
	}
	if summaries == nil {
		summaries = []character.Summary{}
	}
	utils.RespondJSON(w, http.StatusOK, summaries)
}
