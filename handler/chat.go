package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hanxin1997/img-router/common"
	"github.com/hanxin1997/img-router/service"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	Delta        any          `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

// ChatCompletionsHandler 网关入口：聊天补全形状进，图片生成结果出。
// POST /v1/chat/completions
func ChatCompletionsHandler(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		common.Unauthorized(c, "Authorization header missing")
		return
	}

	reqBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.InternalServerError(c, err.Error())
		return
	}
	c.Request.Body.Close()

	before, err := service.BeforeChat(reqBody)
	if err != nil {
		common.BadRequest(c, err.Error())
		return
	}

	result, provider, err := dispatcher.Dispatch(c.Request.Context(), token, before)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownProvider):
			common.Unauthorized(c, "Invalid API Key format. Could not detect provider.")
		case errors.Is(err, service.ErrNoKeyAvailable):
			common.ServiceUnavailable(c, "No available API key in pool.")
		default:
			slog.Error("proxy error", "provider", provider, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"message":  err.Error(),
					"type":     "server_error",
					"provider": provider,
				},
			})
		}
		return
	}

	content := service.RenderContent(c.Request.Context(), result, dispatcher.Settings())

	responseID := "chatcmpl-" + uuid.NewString()
	modelName := before.Model
	if modelName == "" {
		modelName = "unknown-model"
	}

	if before.Stream {
		writeStreamResponse(c, responseID, modelName, content)
		return
	}

	stop := "stop"
	c.JSON(http.StatusOK, chatResponse{
		ID:      responseID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   modelName,
		Choices: []chatChoice{{
			Index:        0,
			Message:      &chatMessage{Role: "assistant", Content: content},
			FinishReason: &stop,
		}},
		Usage: &chatUsage{},
	})
}

// writeStreamResponse 按 SSE 输出：一个内容块、一个结束块、一个 [DONE]
func writeStreamResponse(c *gin.Context, responseID, modelName, content string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	created := time.Now().Unix()
	stop := "stop"

	chunks := []chatResponse{
		{
			ID:      responseID,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   modelName,
			Choices: []chatChoice{{
				Index:        0,
				Delta:        chatMessage{Role: "assistant", Content: content},
				FinishReason: nil,
			}},
		},
		{
			ID:      responseID,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   modelName,
			Choices: []chatChoice{{
				Index:        0,
				Delta:        struct{}{},
				FinishReason: &stop,
			}},
		},
	}

	for _, chunk := range chunks {
		data, err := json.Marshal(chunk)
		if err != nil {
			slog.Error("marshal stream chunk", "error", err)
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
