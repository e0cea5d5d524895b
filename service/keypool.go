package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hanxin1997/img-router/consts"
	"github.com/hanxin1997/img-router/models"
	"github.com/hanxin1997/img-router/pkg"
	"github.com/samber/lo"
)

var (
	// ErrNoKeyAvailable 池为空或全部被封禁/被过滤，与"凭证无法识别"是两种不同失败
	ErrNoKeyAvailable = errors.New("no available API key in pool")
	ErrKeyNotFound    = errors.New("key not found")
	ErrInvalidWeight  = errors.New("roundRobin weight must be >= 1")
)

// KeyPool Key 池管理器：加权轮询选取、封禁/解禁、权重调整。
// 所有入口都走 Store 的同一临界区，封禁过期的惰性检查也集中在这里，
// 其他组件不得自行判断 banExpiry。
type KeyPool struct {
	store *models.Store
}

func NewKeyPool(store *models.Store) *KeyPool {
	return &KeyPool{store: store}
}

// clearExpiredBans 惰性解除到期封禁，仅在临界区内调用
func clearExpiredBans(cfg *models.Config, now int64) {
	for i := range cfg.APIKeys {
		key := &cfg.APIKeys[i]
		if key.Banned && key.BanExpiry != nil && now >= *key.BanExpiry {
			key.Banned = false
			key.BanExpiry = nil
		}
	}
}

// SelectNext 加权轮询选取下一个可用 Key。
// 权重为 w 的 Key 会被连续返回 w 次后才轮转到下一个，
// 用意是把短时间的请求集中在同一凭证上，摊平上游按 Key 的限流窗口。
// 选取、计数与落盘在同一临界区内完成；落盘失败时本次选取整体回滚。
func (p *KeyPool) SelectNext(provider consts.Provider) (models.APIKey, error) {
	var selected models.APIKey
	err := p.store.Update(func(cfg *models.Config) error {
		clearExpiredBans(cfg, time.Now().UnixMilli())

		eligible := make([]*models.APIKey, 0, len(cfg.APIKeys))
		for i := range cfg.APIKeys {
			key := &cfg.APIKeys[i]
			if key.Banned {
				continue
			}
			if provider != "" && provider != consts.ProviderAuto && key.Provider != provider {
				continue
			}
			eligible = append(eligible, key)
		}
		if len(eligible) == 0 {
			return ErrNoKeyAvailable
		}

		// 可用集缩小后游标可能越界，回绕到起点
		if cfg.Cursor >= len(eligible) {
			cfg.Cursor = 0
		}

		current := eligible[cfg.Cursor]
		current.UsedCount++
		cfg.CursorUsage++

		weight := current.RoundRobin
		if weight < 1 {
			weight = 1
		}
		if cfg.CursorUsage >= weight {
			cfg.Cursor = (cfg.Cursor + 1) % len(eligible)
			cfg.CursorUsage = 0
		}

		selected = *current
		return nil
	})
	if err != nil {
		return models.APIKey{}, err
	}
	return selected, nil
}

// Add 新增凭证；provider 为空时按凭证格式自动识别，weight<=0 时取 1
func (p *KeyPool) Add(name, value, provider string, weight int) (models.APIKey, error) {
	if provider == "" {
		provider = DetectProvider(value)
	}
	if weight <= 0 {
		weight = 1
	}
	key := models.APIKey{
		ID:         uuid.NewString(),
		Name:       name,
		Value:      value,
		Provider:   provider,
		RoundRobin: weight,
		CreatedAt:  time.Now().UnixMilli(),
	}
	err := p.store.Update(func(cfg *models.Config) error {
		cfg.APIKeys = append(cfg.APIKeys, key)
		return nil
	})
	if err != nil {
		return models.APIKey{}, err
	}
	return key, nil
}

func (p *KeyPool) Delete(id string) error {
	return p.store.Update(func(cfg *models.Config) error {
		next := lo.Filter(cfg.APIKeys, func(k models.APIKey, _ int) bool { return k.ID != id })
		if len(next) == len(cfg.APIKeys) {
			return ErrKeyNotFound
		}
		cfg.APIKeys = next
		return nil
	})
}

// Ban 封禁凭证，固定 24 小时，无退避
func (p *KeyPool) Ban(id string) error {
	return p.mutateKey(id, func(key *models.APIKey) error {
		expiry := time.Now().Add(consts.BanDuration).UnixMilli()
		key.Banned = true
		key.BanExpiry = &expiry
		return nil
	})
}

// Unban 立即解禁
func (p *KeyPool) Unban(id string) error {
	return p.mutateKey(id, func(key *models.APIKey) error {
		key.Banned = false
		key.BanExpiry = nil
		return nil
	})
}

// UpdateWeight 调整轮询权重，要求 w >= 1
func (p *KeyPool) UpdateWeight(id string, weight int) error {
	if weight < 1 {
		return ErrInvalidWeight
	}
	return p.mutateKey(id, func(key *models.APIKey) error {
		key.RoundRobin = weight
		return nil
	})
}

func (p *KeyPool) mutateKey(id string, fn func(key *models.APIKey) error) error {
	return p.store.Update(func(cfg *models.Config) error {
		for i := range cfg.APIKeys {
			if cfg.APIKeys[i].ID == id {
				return fn(&cfg.APIKeys[i])
			}
		}
		return ErrKeyNotFound
	})
}

// List 返回全部凭证记录，Value 已脱敏
func (p *KeyPool) List() []models.APIKey {
	var keys []models.APIKey
	p.store.View(func(cfg *models.Config) {
		keys = lo.Map(cfg.APIKeys, func(k models.APIKey, _ int) models.APIKey {
			k.Value = pkg.MaskKey(k.Value)
			return k
		})
	})
	return keys
}

func (p *KeyPool) Settings() models.Settings {
	var settings models.Settings
	p.store.View(func(cfg *models.Config) {
		settings = cfg.Settings
	})
	return settings
}

// UpdateSettings 按提交的字段做部分合并
func (p *KeyPool) UpdateSettings(patch []byte) error {
	return p.store.Update(func(cfg *models.Config) error {
		return cfg.Settings.Merge(patch)
	})
}

func (p *KeyPool) ModelSizes() map[string]models.ModelSize {
	var sizes map[string]models.ModelSize
	p.store.View(func(cfg *models.Config) {
		sizes = make(map[string]models.ModelSize, len(cfg.ModelSizes))
		for k, v := range cfg.ModelSizes {
			sizes[k] = v
		}
	})
	return sizes
}

func (p *KeyPool) UpdateModelSizes(patch map[string]models.ModelSize) error {
	return p.store.Update(func(cfg *models.Config) error {
		for k, v := range patch {
			cfg.ModelSizes[k] = v
		}
		return nil
	})
}

// ModelSize 查询渠道的尺寸配置；未配置时返回空串，由适配器落到渠道默认值
func (p *KeyPool) ModelSize(provider consts.Provider, edit bool) string {
	var size string
	p.store.View(func(cfg *models.Config) {
		if s, ok := cfg.ModelSizes[provider]; ok {
			if edit {
				size = s.ImageEdit
			} else {
				size = s.TextToImage
			}
		}
	})
	return size
}
