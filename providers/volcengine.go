package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hanxin1997/img-router/consts"
)

// VolcEngine 火山引擎适配器：单次同步调用，支持图生图
type VolcEngine struct {
	BaseURL string // 为空时使用 consts.VolcAPIURL
	Timeout time.Duration
}

func (v *VolcEngine) Name() consts.Provider {
	return consts.ProviderVolcEngine
}

type volcRequest struct {
	Model          string   `json:"model"`
	Prompt         string   `json:"prompt"`
	Image          []string `json:"image"`
	ResponseFormat string   `json:"response_format"`
	Size           string   `json:"size"`
	Seed           int      `json:"seed"`
	Stream         bool     `json:"stream"`
	Watermark      bool     `json:"watermark"`
}

type volcResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (v *VolcEngine) Generate(ctx context.Context, apiKey string, genReq Request) (*Result, error) {
	model := genReq.Model
	if model == "" {
		model = consts.VolcDefaultModel
	}
	prompt := genReq.Prompt
	if prompt == "" {
		prompt = consts.DefaultPrompt
	}
	size := genReq.Size
	if size == "" {
		size = consts.VolcDefaultSize
	}
	images := genReq.Images
	if images == nil {
		images = []string{}
	}

	body, err := json.Marshal(volcRequest{
		Model:          model,
		Prompt:         prompt,
		Image:          images,
		ResponseFormat: "url",
		Size:           size,
		Seed:           -1,
		Stream:         false,
		Watermark:      false,
	})
	if err != nil {
		return nil, err
	}

	url := v.BaseURL
	if url == "" {
		url = consts.VolcAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Connection", "close")

	slog.Info("VolcEngine generate", "model", model, "size", size, "images", len(images))

	res, err := GetClient(v.Timeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("VolcEngine request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("VolcEngine read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &UpstreamError{Provider: consts.ProviderVolcEngine, StatusCode: res.StatusCode, Body: string(raw)}
	}

	var parsed volcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("VolcEngine parse response: %w", err)
	}

	result := &Result{}
	for _, img := range parsed.Data {
		if img.URL == "" {
			continue
		}
		result.Images = append(result.Images, ImageRef{URL: img.URL})
	}
	return result, nil
}
