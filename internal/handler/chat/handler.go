package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	chatService "github.com/zhouzirui/chara-chat/backend/internal/service/chat"
	"github.com/zhouzirui/chara-chat/backend/pkg/utils"
)

const messageInvalidChatRequest = "メッセージとキャラクターIDが必要です"

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc    *chatService.Service
	responder  chatService.Responder
	characters character.Store
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, responder chatService.Responder, characters character.Store) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		responder:  responder,
		characters: characters,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Get("/messages", h.handleListMessages)
			r.Post("/messages", h.handleSendMessage)
			r.Delete("/messages", h.handleClearMessages)
			r.Delete("/messages/{messageID}", h.handleRemoveMessage)
			r.Post("/retry", h.handleRetry)
		})
	})
}

type chatRequest struct {
	Message     string `json:"message" validate:"required,notblank"`
	CharacterID string `json:"characterId" validate:"required,notblank"`
}

type chatResponse struct {
	Response string `json:"response"`
	Emotion  string `json:"emotion,omitempty"`
}

// handleChat 单轮对话：不保存历史
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, messageInvalidChatRequest, string(apperror.MissingRequiredField), false)
		return
	}

	reply, err := h.responder.Respond(r.Context(), payload.CharacterID, payload.Message)
	if err != nil {
		respondAppError(w, apperror.Classify(err), "POST /api/chat")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Response: reply.Text, Emotion: string(reply.Emotion)})
}

// respondAppError 将已分类的错误写回客户端，原始错误不会外泄
func respondAppError(w http.ResponseWriter, appErr *apperror.Error, where string) {
	apperror.Log(appErr, where)
	utils.RespondJSON(w, statusFor(appErr), errorBody(appErr))
}

// errorResponse keeps the fixed user-facing text in "error" next to the
// classified error.
type errorResponse struct {
	Error string `json:"error"`
	apperror.Payload
}

func errorBody(appErr *apperror.Error) errorResponse {
	return errorResponse{
		Error:   chatService.FailureMessage(appErr),
		Payload: appErr.Payload(),
	}
}

func statusFor(appErr *apperror.Error) int {
	switch appErr.Code {
	case apperror.CharacterNotFound:
		return http.StatusNotFound
	case apperror.InvalidInput, apperror.MissingRequiredField:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondSessionError 处理会话相关的哨兵错误
func respondSessionError(w http.ResponseWriter, err error, where string) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, chatService.ErrMessageNotFound):
		utils.RespondError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, chatService.ErrSendInFlight):
		utils.RespondError(w, http.StatusConflict, "a message is already being sent")
	case errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondErrorCode(w, http.StatusBadRequest, "メッセージが必要です", string(apperror.MissingRequiredField), false)
	case errors.Is(err, chatService.ErrNoUserMessage):
		utils.RespondError(w, http.StatusBadRequest, "no user message to retry")
	default:
		respondAppError(w, apperror.Classify(err), where)
	}
}
