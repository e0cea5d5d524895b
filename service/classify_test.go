package service

import (
	"strings"
	"testing"

	"github.com/hanxin1997/img-router/consts"
	"github.com/stretchr/testify/assert"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		expected consts.Provider
	}{
		{"ModelScope 前缀", "ms-abc123", consts.ProviderModelScope},
		{"ModelScope 仅前缀也命中", "ms-", consts.ProviderModelScope},
		{"HuggingFace 前缀", "hf_abcdefghijklmnopqrstuvwxyz123456", consts.ProviderHuggingFace},
		{"火山引擎 UUID 小写", "01234567-89ab-cdef-0123-456789abcdef", consts.ProviderVolcEngine},
		{"火山引擎 UUID 大写", "01234567-89AB-CDEF-0123-456789ABCDEF", consts.ProviderVolcEngine},
		{"火山引擎 UUID 混合大小写", "A1b2C3d4-E5f6-7890-Ab12-Cd34Ef56Ab78", consts.ProviderVolcEngine},
		{"Gitee 40 位字母数字", strings.Repeat("Ab3", 13) + "X", consts.ProviderGitee},
		{"Gitee 下限 30 位", strings.Repeat("a", 30), consts.ProviderGitee},
		{"Gitee 上限 60 位", strings.Repeat("Z", 60), consts.ProviderGitee},
		{"29 位过短", strings.Repeat("a", 29), consts.ProviderUnknown},
		{"61 位过长", strings.Repeat("a", 61), consts.ProviderUnknown},
		{"20 位无法识别", strings.Repeat("x", 20), consts.ProviderUnknown},
		{"含特殊字符无法识别", "sk-proj_" + strings.Repeat("a", 40), consts.ProviderUnknown},
		{"空串", "", consts.ProviderUnknown},
		{"UUID 少一段", "01234567-89ab-cdef-0123", consts.ProviderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectProvider(tt.apiKey))
		})
	}
}

// ms- 前缀里可能混进满足 Gitee 长度规则的串，前缀规则优先
func TestDetectProviderPriority(t *testing.T) {
	key := "ms-" + strings.Repeat("a", 40)
	assert.Equal(t, consts.ProviderModelScope, DetectProvider(key))

	key = "hf_" + strings.Repeat("b", 40)
	assert.Equal(t, consts.ProviderHuggingFace, DetectProvider(key))
}
