package handler

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.KeyPool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := models.Open(filepath.Join(t.TempDir(), consts.ConfigFileName))
	require.NoError(t, err)
	p := service.NewKeyPool(store)
	Init(p)

	router := gin.New()
	router.POST("/v1/chat/completions", ChatCompletionsHandler)
	return router, p
}

func doChat(router *gin.Engine, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatCompletionsMissingAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doChat(router, "", `{"messages": [{"role": "user", "content": "a cat"}]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization header missing", gjson.Get(w.Body.String(), "error").String())
}

func TestChatCompletionsUnknownKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doChat(router, "Bearer short-key!", `{"messages": [{"role": "user", "content": "a cat"}]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API Key format. Could not detect provider.", gjson.Get(w.Body.String(), "error").String())
}

func TestChatCompletionsPoolExhausted(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doChat(router, "Bearer auto", `{"messages": [{"role": "user", "content": "a cat"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "No available API key in pool.", gjson.Get(w.Body.String(), "error").String())
}

func TestChatCompletionsInvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doChat(router, "Bearer ms-abc123", `{messages:`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
