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
	"github.com/hanxin1997/img-router/pkg"
)

// Gitee 模力方舟适配器：单次同步调用
type Gitee struct {
	BaseURL string // 为空时使用 consts.GiteeAPIURL
	Timeout time.Duration
}

func (g *Gitee) Name() consts.Provider {
	return consts.ProviderGitee
}

type giteeRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type giteeResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (g *Gitee) Generate(ctx context.Context, apiKey string, genReq Request) (*Result, error) {
	// 仅透传 z-image 系列模型名，其余一律替换为默认模型
	model := consts.GiteeDefaultModel
	if strings.Contains(genReq.Model, "z-image") {
		model = genReq.Model
	}
	prompt := genReq.Prompt
	if prompt == "" {
		prompt = consts.DefaultPrompt
	}
	size := genReq.Size
	if size == "" {
		size = consts.GiteeDefaultSize
	}

	body, err := json.Marshal(giteeRequest{
		Model:          model,
		Prompt:         prompt,
		Size:           size,
		N:              1,
		ResponseFormat: "url",
	})
	if err != nil {
		return nil, err
	}

	url := g.BaseURL
	if url == "" {
		url = consts.GiteeAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("User-Agent", "Doubao-Seedream-Proxy/1.0")

	slog.Info("Gitee generate", "model", model, "size", size, "key", pkg.MaskKey(apiKey))

	res, err := GetClient(g.Timeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("Gitee request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("Gitee read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &UpstreamError{Provider: consts.ProviderGitee, StatusCode: res.StatusCode, Body: string(raw)}
	}

	var parsed giteeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("Gitee parse response: %w", err)
	}
	// 空 data 是硬错误，不允许当成"生成了零张图"静默返回
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: Gitee response: %s", ErrMalformedResponse, string(raw))
	}

	result := &Result{}
	for _, img := range parsed.Data {
		switch {
		case img.URL != "":
			result.Images = append(result.Images, ImageRef{URL: img.URL})
		case img.B64JSON != "":
			result.Images = append(result.Images, ImageRef{B64: img.B64JSON})
		}
	}
	return result, nil
}
