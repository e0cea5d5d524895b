package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/providers"
	"github.com/stretchr/testify/assert"
)

func TestRenderContentEmptyResult(t *testing.T) {
	settings := models.Settings{}
	assert.Equal(t, consts.FailedPlaceholder, RenderContent(context.Background(), nil, settings))
	assert.Equal(t, consts.FailedPlaceholder, RenderContent(context.Background(), &providers.Result{}, settings))
}

func TestRenderContentURLMode(t *testing.T) {
	result := &providers.Result{Images: []providers.ImageRef{
		{URL: "https://img.example.com/1.png"},
		{URL: "https://img.example.com/2.png"},
	}}

	content := RenderContent(context.Background(), result, models.Settings{ConvertToBase64: false})
	parts := strings.Split(content, "\n\n")
	assert.Equal(t, []string{
		"![Generated Image](https://img.example.com/1.png)",
		"![Generated Image](https://img.example.com/2.png)",
	}, parts)
}

func TestRenderContentInlineB64(t *testing.T) {
	result := &providers.Result{Images: []providers.ImageRef{{B64: "aGVsbG8="}}}
	content := RenderContent(context.Background(), result, models.Settings{})
	assert.Equal(t, "![Generated Image](data:image/png;base64,aGVsbG8=)", content)
}

func TestRenderContentFetchesToDataURI(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	result := &providers.Result{Images: []providers.ImageRef{{URL: server.URL + "/1.png"}}}
	content := RenderContent(context.Background(), result, models.Settings{ConvertToBase64: true})

	expected := "![Generated Image](data:image/png;base64," + base64.StdEncoding.EncodeToString(payload) + ")"
	assert.Equal(t, expected, content)
}

// 拉取失败降级为原始 URL，而不是让整个请求失败
func TestRenderContentFallbackToURLOnFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	url := server.URL + "/missing.png"
	result := &providers.Result{Images: []providers.ImageRef{{URL: url}}}
	content := RenderContent(context.Background(), result, models.Settings{ConvertToBase64: true})
	assert.Equal(t, "![Generated Image]("+url+")", content)
}

func TestIsWebP(t *testing.T) {
	webpHeader := append([]byte("RIFF"), 0, 0, 0, 0)
	webpHeader = append(webpHeader, []byte("WEBP")...)
	assert.True(t, isWebP(webpHeader))
	assert.False(t, isWebP([]byte{0x89, 'P', 'N', 'G'}))
	assert.False(t, isWebP([]byte("RIFF1234AVI ")))
	assert.False(t, isWebP(nil))
}
