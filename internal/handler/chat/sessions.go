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

type createSessionRequest struct {
	CharacterID string `json:"characterId" validate:"required,notblank"`
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

type sendFailure struct {
	errorResponse
	chatService.Exchange
}

// handleCreateSession 创建绑定角色的会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, "キャラクターIDが必要です", string(apperror.MissingRequiredField), false)
		return
	}

	if _, err := h.characters.FindProfile(payload.CharacterID); err != nil {
		if errors.Is(err, character.ErrNotFound) {
			utils.RespondErrorCode(w, http.StatusNotFound, chatService.MessageCharacterNotFound, string(apperror.CharacterNotFound), false)
			return
		}
		respondAppError(w, apperror.New(apperror.CharacterLoadFailed, "", apperror.SeverityHigh, map[string]any{
			"characterId": payload.CharacterID,
		}).WithCause(err), "POST /api/sessions")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.CharacterID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err, "GET /api/sessions/{id}")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err, "DELETE /api/sessions/{id}")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMessages 返回会话历史
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err, "GET /api/sessions/{id}/messages")
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage 追加用户消息并生成角色回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload sendMessageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, "メッセージが必要です", string(apperror.MissingRequiredField), false)
		return
	}

	exchange, err := h.chatSvc.Send(r.Context(), chi.URLParam(r, "sessionID"), payload.Message, h.responder)
	h.respondExchange(w, exchange, err, "POST /api/sessions/{id}/messages")
}

// handleRetry 用会话绑定的角色重发最后一条用户消息
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	exchange, err := h.chatSvc.Retry(r.Context(), chi.URLParam(r, "sessionID"), h.responder)
	h.respondExchange(w, exchange, err, "POST /api/sessions/{id}/retry")
}

func (h *Handler) respondExchange(w http.ResponseWriter, exchange chatService.Exchange, err error, where string) {
	if err == nil {
		utils.RespondJSON(w, http.StatusOK, exchange)
		return
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) || exchange.AssistantMessage.ID == "" {
		respondSessionError(w, err, where)
		return
	}

	apperror.Log(appErr, where)
	utils.RespondJSON(w, statusFor(appErr), sendFailure{
		errorResponse: errorBody(appErr),
		Exchange:      exchange,
	})
}

func (h *Handler) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.ClearTranscript(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err, "DELETE /api/sessions/{id}/messages")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveMessage(w http.ResponseWriter, r *http.Request) {
	err := h.chatSvc.RemoveMessage(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "messageID"))
	if err != nil {
		respondSessionError(w, err, "DELETE /api/sessions/{id}/messages/{messageID}")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
