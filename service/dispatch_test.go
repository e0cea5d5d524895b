package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	store, err := models.Open(filepath.Join(t.TempDir(), consts.ConfigFileName))
	require.NoError(t, err)
	return &Dispatcher{Pool: NewKeyPool(store)}
}

// 无法识别的凭证直接拒绝，不发起任何上游调用
func TestDispatchUnknownKey(t *testing.T) {
	d := newTestDispatcher(t)

	_, provider, err := d.Dispatch(context.Background(), "not-a-valid-key!", &Before{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, consts.ProviderUnknown, provider)
}

// HuggingFace 凭证能识别但没有生成适配器，同样按认证类错误处理
func TestDispatchHuggingFaceRejected(t *testing.T) {
	d := newTestDispatcher(t)

	_, provider, err := d.Dispatch(context.Background(), "hf_abcdefghijklmnop", &Before{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, consts.ProviderHuggingFace, provider)
}

// 出示 "auto" 走池，池空时报无可用 Key
func TestDispatchPoolEmpty(t *testing.T) {
	d := newTestDispatcher(t)

	_, _, err := d.Dispatch(context.Background(), consts.ProviderAuto, &Before{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}

// 出示网关访问密钥等同于 "auto"
func TestDispatchAccessTokenUsesPool(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Pool.UpdateSettings([]byte(`{"accessToken": "secret-token"}`)))

	_, _, err := d.Dispatch(context.Background(), "secret-token", &Before{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}
