package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/pkg"
	"github.com/hanxin1997/img-router/providers"
)

// ErrUnknownProvider 凭证无法识别出渠道，属认证类错误，未发起任何上游调用
var ErrUnknownProvider = errors.New("could not detect provider from API key")

// Dispatcher 调度器：识别凭证（或从池中取一个），调用对应渠道适配器。
// 自身无状态，持久状态全部在 KeyPool 里。
type Dispatcher struct {
	Pool *KeyPool
}

// Dispatch 处理一次生成请求。
// 调用方出示网关访问密钥或字面量 "auto" 时从池中轮询取 Key
// （按 settings.activeProvider 过滤）；其余情况直接识别并使用出示的凭证。
func (d *Dispatcher) Dispatch(ctx context.Context, token string, before *Before) (*providers.Result, consts.Provider, error) {
	settings := d.Pool.Settings()

	apiKey := token
	var provider consts.Provider
	if token == consts.ProviderAuto || (settings.AccessToken != "" && token == settings.AccessToken) {
		record, err := d.Pool.SelectNext(settings.ActiveProvider)
		if err != nil {
			return nil, consts.ProviderUnknown, err
		}
		apiKey = record.Value
		provider = record.Provider
		slog.Info("using pool key", "name", record.Name, "key", pkg.MaskKey(record.Value), "provider", provider, "usedCount", record.UsedCount)
	} else {
		provider = DetectProvider(apiKey)
		if provider == consts.ProviderUnknown {
			return nil, provider, ErrUnknownProvider
		}
		slog.Info("detected provider", "provider", provider, "key", pkg.MaskKey(apiKey))
	}

	timeout := time.Duration(settings.APITimeout) * time.Second
	if settings.APITimeout <= 0 {
		timeout = consts.DefaultAPITimeout * time.Second
	}

	generator, err := providers.New(provider, timeout)
	if err != nil {
		// 识别出了渠道但没有生成适配器（如 HuggingFace），同样按认证类错误处理
		return nil, provider, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	model := before.Model
	if model == "" {
		model = settings.ActiveModel
	}
	size := before.Size
	if size == "" {
		size = d.Pool.ModelSize(provider, len(before.Images) > 0)
	}

	result, err := generator.Generate(ctx, apiKey, providers.Request{
		Model:  model,
		Prompt: before.Prompt,
		Size:   size,
		Images: before.Images,
	})
	if err != nil {
		return nil, provider, err
	}
	return result, provider, nil
}

// Settings 暴露给响应渲染阶段使用
func (d *Dispatcher) Settings() models.Settings {
	return d.Pool.Settings()
}
