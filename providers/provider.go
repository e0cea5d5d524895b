package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hanxin1997/img-router/consts"
)

// Request 渠道无关的生成请求
type Request struct {
	Model  string
	Prompt string
	Size   string
	Images []string // 参考图 URL 或 data URI
}

// ImageRef 生成结果中的一张图片引用，URL 与 B64 二选一
type ImageRef struct {
	URL string
	B64 string // 不带 data: 前缀的原始 base64
}

// Result 渠道无关的生成结果，图片顺序与上游响应一致
type Result struct {
	Images []ImageRef
}

// Generator 图片生成适配器
type Generator interface {
	Name() consts.Provider
	Generate(ctx context.Context, apiKey string, req Request) (*Result, error)
}

// New 按渠道标识构造适配器。
// HuggingFace 只出现在管理面，没有生成适配器，与未知渠道同样返回错误。
func New(provider consts.Provider, timeout time.Duration) (Generator, error) {
	switch provider {
	case consts.ProviderVolcEngine:
		return &VolcEngine{Timeout: timeout}, nil
	case consts.ProviderGitee:
		return &Gitee{Timeout: timeout}, nil
	case consts.ProviderModelScope:
		return &ModelScope{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("no image generator for provider %s", provider)
	}
}

// UpstreamError 上游非 2xx 响应或终态失败，原样携带响应体便于排障
type UpstreamError struct {
	Provider   consts.Provider
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API Error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

var (
	// ErrMalformedResponse 上游返回 2xx 但缺少预期字段（如 Gitee 空 data 数组）
	ErrMalformedResponse = errors.New("upstream response missing image data")
	// ErrTaskTimeout 异步任务轮询达到次数上限仍未出结果
	ErrTaskTimeout = errors.New("ModelScope task timeout")
)
