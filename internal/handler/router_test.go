package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	"github.com/zhouzirui/chara-chat/backend/internal/service/ai"
	chatService "github.com/zhouzirui/chara-chat/backend/internal/service/chat"
)

type fixedSender struct{}

func (fixedSender) Send(context.Context, string) (string, error) { return "にゃ！", nil }

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	p := character.NewProfile()
	p.Name = "ねこみみ"
	store := character.NewMemoryStore([]character.Entry{{ID: "nekomimi", Profile: p}})
	aiSvc := ai.NewService(fixedSender{})

	return NewRouter(Deps{
		Characters:  store,
		Chat:        chatService.NewService(),
		Responder:   chatService.NewCharacterResponder(store, aiSvc),
		AIAvailable: aiSvc.Available(),
		StaticDir:   staticDir,
	})
}

func TestRouterServesAPI(t *testing.T) {
	r := newTestRouter(t, "")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/characters", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "nekomimi")

	resp = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"こんにちは","characterId":"nekomimi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"response":"にゃ！"}`, resp.Body.String())

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"characterId":"nekomimi"}`))
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t, "")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["ai"])
	assert.Equal(t, float64(1), body["characters"])
}

func TestRouterServesStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>chat</h1>"), 0o644))
	r := newTestRouter(t, dir)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "<h1>chat</h1>")
}
