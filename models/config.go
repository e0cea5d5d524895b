package models

import (
	"encoding/json"
	"errors"
	"maps"

	"github.com/hanxin1997/img-router/consts"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// APIKey 池中的一条凭证记录。
// JSON 字段名与 ui-config.json 既有数据保持兼容，时间均为 epoch 毫秒。
type APIKey struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Value      string `json:"value"`
	Provider   string `json:"provider"`
	RoundRobin int    `json:"roundRobin"` // 轮询权重：连续使用次数
	UsedCount  int    `json:"usedCount"`
	Banned     bool   `json:"banned"`
	BanExpiry  *int64 `json:"banExpiry"`
	CreatedAt  int64  `json:"createdAt"`
}

// ModelSize 单渠道的出图尺寸配置
type ModelSize struct {
	TextToImage string `json:"textToImage"`
	ImageEdit   string `json:"imageEdit"`
}

type Settings struct {
	ActiveProvider   string `json:"activeProvider"`
	ActiveModel      string `json:"activeModel"`
	APIPort          int    `json:"apiPort"`
	APITimeout       int    `json:"apiTimeout"` // 秒
	ImageBedURL      string `json:"imageBedUrl"`
	ImageBedEndpoint string `json:"imageBedEndpoint"`
	ImageBedAuth     string `json:"imageBedAuth"`
	ImageBedFolder   string `json:"imageBedFolder"`
	ImageBedChannel  string `json:"imageBedChannel"`
	AccessToken      string `json:"accessToken"`
	ConvertWebpToPng bool   `json:"convertWebpToPng"`
	ConvertToBase64  bool   `json:"convertToBase64"`
}

// Merge 将调用方提交的部分字段合并进现有设置，未提交的字段保持不变
func (s *Settings) Merge(patch []byte) error {
	if !gjson.ValidBytes(patch) {
		return errors.New("invalid settings payload")
	}
	cur, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var mergeErr error
	gjson.ParseBytes(patch).ForEach(func(key, value gjson.Result) bool {
		cur, mergeErr = sjson.SetRawBytes(cur, key.String(), []byte(value.Raw))
		return mergeErr == nil
	})
	if mergeErr != nil {
		return mergeErr
	}
	return json.Unmarshal(cur, s)
}

// Config 持久化快照：Key 池、运行设置与轮询游标。
// Cursor/CursorUsage 入快照是为了重启后能还原轮询位置。
type Config struct {
	APIKeys     []APIKey             `json:"apiKeys"`
	Settings    Settings             `json:"settings"`
	ModelSizes  map[string]ModelSize `json:"modelSizes"`
	Cursor      int                  `json:"cursor"`
	CursorUsage int                  `json:"cursorUsage"`
}

func DefaultConfig() *Config {
	return &Config{
		APIKeys: []APIKey{},
		Settings: Settings{
			ActiveProvider:   consts.ProviderAuto,
			APITimeout:       consts.DefaultAPITimeout,
			ConvertWebpToPng: true,
			ConvertToBase64:  true,
		},
		ModelSizes: map[string]ModelSize{},
	}
}

// Clone 深拷贝，供“改副本、落盘成功后再替换”的更新流程使用
func (c *Config) Clone() *Config {
	out := *c
	out.APIKeys = make([]APIKey, len(c.APIKeys))
	copy(out.APIKeys, c.APIKeys)
	for i := range out.APIKeys {
		if e := out.APIKeys[i].BanExpiry; e != nil {
			v := *e
			out.APIKeys[i].BanExpiry = &v
		}
	}
	out.ModelSizes = maps.Clone(c.ModelSizes)
	if out.ModelSizes == nil {
		out.ModelSizes = map[string]ModelSize{}
	}
	return &out
}
