package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Message string `json:"message" validate:"required,notblank"`
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"message":"hi"}`},
		{name: "missing", body: `{}`, wantErr: true},
		{name: "blank", body: `{"message":"  "}`, wantErr: true},
		{name: "malformed", body: `{"message":`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst sample
			err := DecodeJSON(req, &dst)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "hi", dst.Message)
		})
	}
}

func TestRespondErrorCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorCode(rec, http.StatusInternalServerError, "失敗", "API_TIMEOUT", true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "失敗", body["error"])
	assert.Equal(t, "API_TIMEOUT", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestRespondErrorOmitsCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "bad")

	assert.JSONEq(t, `{"error":"bad"}`, rec.Body.String())
}
