package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hanxin1997/img-router/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), consts.ConfigFileName)

	store, err := Open(path)
	require.NoError(t, err)

	// 默认配置会立即落盘
	_, err = os.Stat(path)
	require.NoError(t, err)

	store.View(func(cfg *Config) {
		assert.Equal(t, consts.ProviderAuto, cfg.Settings.ActiveProvider)
		assert.Equal(t, consts.DefaultAPITimeout, cfg.Settings.APITimeout)
		assert.True(t, cfg.Settings.ConvertToBase64)
		assert.Empty(t, cfg.APIKeys)
	})
}

// 重新打开后 Key 池与轮询游标都要还原
func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), consts.ConfigFileName)

	store, err := Open(path)
	require.NoError(t, err)

	expiry := int64(1735689600000)
	require.NoError(t, store.Update(func(cfg *Config) error {
		cfg.APIKeys = append(cfg.APIKeys,
			APIKey{ID: "k1", Name: "one", Value: "ms-abc123", Provider: consts.ProviderModelScope, RoundRobin: 2, UsedCount: 7},
			APIKey{ID: "k2", Name: "two", Value: "secret", Provider: consts.ProviderGitee, Banned: true, BanExpiry: &expiry},
		)
		cfg.Cursor = 1
		cfg.CursorUsage = 1
		cfg.Settings.ActiveModel = "z-image-turbo"
		cfg.ModelSizes[consts.ProviderVolcEngine] = ModelSize{TextToImage: "2048x2048", ImageEdit: "1024x1024"}
		return nil
	}))

	reopened, err := Open(path)
	require.NoError(t, err)
	reopened.View(func(cfg *Config) {
		require.Len(t, cfg.APIKeys, 2)
		assert.Equal(t, 7, cfg.APIKeys[0].UsedCount)
		assert.Equal(t, 2, cfg.APIKeys[0].RoundRobin)
		assert.True(t, cfg.APIKeys[1].Banned)
		require.NotNil(t, cfg.APIKeys[1].BanExpiry)
		assert.Equal(t, expiry, *cfg.APIKeys[1].BanExpiry)
		assert.Equal(t, 1, cfg.Cursor)
		assert.Equal(t, 1, cfg.CursorUsage)
		assert.Equal(t, "z-image-turbo", cfg.Settings.ActiveModel)
		assert.Equal(t, "2048x2048", cfg.ModelSizes[consts.ProviderVolcEngine].TextToImage)
	})
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), consts.ConfigFileName))
	require.NoError(t, err)

	errBoom := assert.AnError
	err = store.Update(func(cfg *Config) error {
		cfg.APIKeys = append(cfg.APIKeys, APIKey{ID: "k1"})
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	store.View(func(cfg *Config) {
		assert.Empty(t, cfg.APIKeys)
	})
}

func TestUpdateRollsBackOnSaveFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, consts.ConfigFileName))
	require.NoError(t, err)

	// 数据目录被移除后落盘必然失败，内存快照不得被替换
	require.NoError(t, os.RemoveAll(dir))

	err = store.Update(func(cfg *Config) error {
		cfg.Cursor = 42
		return nil
	})
	require.Error(t, err)

	store.View(func(cfg *Config) {
		assert.Equal(t, 0, cfg.Cursor)
	})
}

// 部分字段合并：只覆盖提交的字段
func TestSettingsMerge(t *testing.T) {
	s := Settings{
		ActiveProvider:  consts.ProviderAuto,
		ActiveModel:     "old-model",
		APITimeout:      300,
		AccessToken:     "keep-me",
		ConvertToBase64: true,
	}

	require.NoError(t, s.Merge([]byte(`{"activeModel": "new-model", "convertToBase64": false}`)))

	assert.Equal(t, "new-model", s.ActiveModel)
	assert.False(t, s.ConvertToBase64)
	assert.Equal(t, consts.ProviderAuto, s.ActiveProvider)
	assert.Equal(t, 300, s.APITimeout)
	assert.Equal(t, "keep-me", s.AccessToken)
}

func TestSettingsMergeRejectsInvalidJSON(t *testing.T) {
	s := Settings{ActiveModel: "m"}
	assert.Error(t, s.Merge([]byte(`{not json`)))
	assert.Equal(t, "m", s.ActiveModel)
}

func TestConfigCloneIsDeep(t *testing.T) {
	expiry := int64(100)
	cfg := &Config{
		APIKeys:    []APIKey{{ID: "k1", BanExpiry: &expiry}},
		ModelSizes: map[string]ModelSize{consts.ProviderGitee: {TextToImage: "1024x1024"}},
	}

	clone := cfg.Clone()
	clone.APIKeys[0].ID = "changed"
	*clone.APIKeys[0].BanExpiry = 200
	clone.ModelSizes[consts.ProviderGitee] = ModelSize{TextToImage: "512x512"}

	assert.Equal(t, "k1", cfg.APIKeys[0].ID)
	assert.Equal(t, int64(100), *cfg.APIKeys[0].BanExpiry)
	assert.Equal(t, "1024x1024", cfg.ModelSizes[consts.ProviderGitee].TextToImage)
}
