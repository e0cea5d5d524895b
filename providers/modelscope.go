package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hanxin1997/img-router/consts"
	"github.com/tidwall/gjson"
)

// ModelScope 魔塔适配器：提交任务后轮询直至终态。
// 提交时通过 X-ModelScope-Async-Mode 强制异步，否则上游可能静默阻塞。
type ModelScope struct {
	BaseURL      string        // 为空时使用 consts.ModelScopeAPIBase
	Timeout      time.Duration // 单次 HTTP 调用超时
	PollInterval time.Duration // 为零时使用 consts.PollInterval
	MaxAttempts  int           // 为零时使用 consts.MaxPollAttempts
}

func (m *ModelScope) Name() consts.Provider {
	return consts.ProviderModelScope
}

type modelScopeSubmit struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

func (m *ModelScope) base() string {
	if m.BaseURL != "" {
		return strings.TrimRight(m.BaseURL, "/")
	}
	return consts.ModelScopeAPIBase
}

func (m *ModelScope) Generate(ctx context.Context, apiKey string, genReq Request) (*Result, error) {
	taskID, err := m.submit(ctx, apiKey, genReq)
	if err != nil {
		return nil, err
	}
	slog.Info("ModelScope task submitted", "taskId", taskID)
	return m.poll(ctx, apiKey, taskID)
}

func (m *ModelScope) submit(ctx context.Context, apiKey string, genReq Request) (string, error) {
	// 仅透传 Z-Image 系列模型名，其余一律替换为默认模型
	model := consts.ModelScopeDefaultModel
	if strings.Contains(genReq.Model, "Z-Image") {
		model = genReq.Model
	}
	prompt := genReq.Prompt
	if prompt == "" {
		prompt = consts.DefaultPrompt
	}
	size := genReq.Size
	if size == "" {
		size = consts.ModelScopeDefaultSize
	}

	body, err := json.Marshal(modelScopeSubmit{
		Model:  model,
		Prompt: prompt,
		Size:   size,
		N:      1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base()+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("X-ModelScope-Async-Mode", "true")

	res, err := GetClient(m.Timeout).Do(req)
	if err != nil {
		return "", fmt.Errorf("ModelScope submit: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("ModelScope read submit response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &UpstreamError{Provider: consts.ProviderModelScope, StatusCode: res.StatusCode, Body: string(raw)}
	}

	taskID := gjson.GetBytes(raw, "task_id").String()
	if taskID == "" {
		return "", fmt.Errorf("%w: ModelScope submit response: %s", ErrMalformedResponse, string(raw))
	}
	return taskID, nil
}

// poll 轮询任务状态机：PENDING 之外只有 SUCCEED/FAILED 两个终态，
// 轮询中的传输错误与非 2xx 均视为瞬态，但尝试次数照常累积。
func (m *ModelScope) poll(ctx context.Context, apiKey, taskID string) (*Result, error) {
	interval := m.PollInterval
	if interval <= 0 {
		interval = consts.PollInterval
	}
	maxAttempts := m.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = consts.MaxPollAttempts
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		raw, status, err := m.checkTask(ctx, apiKey, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("ModelScope polling transport error", "taskId", taskID, "attempt", attempt, "error", err)
			continue
		}
		if status < 200 || status >= 300 {
			slog.Warn("ModelScope polling warning", "taskId", taskID, "attempt", attempt, "status", status)
			continue
		}

		switch taskStatus := gjson.GetBytes(raw, "task_status").String(); taskStatus {
		case "SUCCEED":
			slog.Info("ModelScope task succeed", "taskId", taskID, "attempt", attempt)
			result := &Result{}
			for _, url := range gjson.GetBytes(raw, "output_images").Array() {
				if url.String() == "" {
					continue
				}
				result.Images = append(result.Images, ImageRef{URL: url.String()})
			}
			return result, nil
		case "FAILED":
			return nil, &UpstreamError{Provider: consts.ProviderModelScope, StatusCode: status, Body: string(raw)}
		default:
			slog.Info("ModelScope task pending", "taskId", taskID, "status", taskStatus, "attempt", attempt, "max", maxAttempts)
		}
	}

	return nil, fmt.Errorf("%w: task %s after %d attempts", ErrTaskTimeout, taskID, maxAttempts)
}

func (m *ModelScope) checkTask(ctx context.Context, apiKey, taskID string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.base()+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("X-ModelScope-Task-Type", "image_generation")

	res, err := GetClient(m.Timeout).Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, err
	}
	return raw, res.StatusCode, nil
}
