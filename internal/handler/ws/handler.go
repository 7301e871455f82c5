// Package ws serves the chat over a websocket connection bound to a session.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
	"github.com/zhouzirui/chara-chat/backend/internal/middleware"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	chatService "github.com/zhouzirui/chara-chat/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket聊天处理器
type Handler struct {
	chatSvc    *chatService.Service
	responder  chatService.Responder
	characters character.Store
	upgrader   websocket.Upgrader
}

// New 创建WebSocket处理器，origins 与 CORS 使用同一白名单
func New(chatSvc *chatService.Service, responder chatService.Responder, characters character.Store, origins ...string) *Handler {
	originAllowed := middleware.AllowOrigins(origins...)
	return &Handler{
		chatSvc:    chatSvc,
		responder:  responder,
		characters: characters,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	profile, err := h.characters.FindProfile(session.CharacterID)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			http.Error(w, chatService.MessageCharacterNotFound, http.StatusNotFound)
			return
		}
		log.Printf("[websocket] load character %s failed: %v", session.CharacterID, err)
		http.Error(w, "character load failed", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	c := &conn{ws: wsConn}
	defer wsConn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = wsConn.SetReadDeadline(time.Now().Add(readTimeout))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, c)

	h.sendInfo(c, sessionID, map[string]any{
		"type":        "connected",
		"characterId": session.CharacterID,
		"name":        profile.Name,
	})

	for {
		var msg inboundMessage
		if err := wsConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		_ = wsConn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(c, sessionID, "session mismatch", nil)
			continue
		}

		h.handleMessage(ctx, c, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(c, sessionID, "invalid text payload", nil)
			return
		}
		exchange, err := h.chatSvc.Send(ctx, sessionID, text.Text, h.responder)
		h.sendExchange(c, sessionID, exchange, err)
	case "retry":
		exchange, err := h.chatSvc.Retry(ctx, sessionID, h.responder)
		h.sendExchange(c, sessionID, exchange, err)
	case "history":
		messages, err := h.chatSvc.LoadTranscript(ctx, sessionID)
		if err != nil {
			h.sendError(c, sessionID, err.Error(), nil)
			return
		}
		h.sendInfo(c, sessionID, map[string]any{"type": "history", "messages": messages})
	case "clear":
		if err := h.chatSvc.ClearTranscript(ctx, sessionID); err != nil {
			h.sendError(c, sessionID, err.Error(), nil)
			return
		}
		h.sendInfo(c, sessionID, map[string]any{"type": "cleared"})
	default:
		h.sendError(c, sessionID, "unsupported message type: "+msg.Type, nil)
	}
}

func (h *Handler) sendExchange(c *conn, sessionID string, exchange chatService.Exchange, err error) {
	if err == nil {
		h.sendInfo(c, sessionID, map[string]any{
			"type":             "reply",
			"userMessage":      exchange.UserMessage,
			"assistantMessage": exchange.AssistantMessage,
		})
		return
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.sendError(c, sessionID, err.Error(), nil)
		return
	}

	apperror.Log(appErr, "websocket session="+sessionID)
	h.sendError(c, sessionID, chatService.FailureMessage(appErr), map[string]any{
		"error":            appErr.Payload(),
		"userMessage":      exchange.UserMessage,
		"assistantMessage": exchange.AssistantMessage,
	})
}

func (h *Handler) sendInfo(c *conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *Handler) sendError(c *conn, sessionID, message string, extra map[string]any) {
	data := map[string]any{"message": message}
	for k, v := range extra {
		data[k] = v
	}
	msg := outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
