package service

import (
	"regexp"
	"strings"

	"github.com/hanxin1997/img-router/consts"
)

var (
	// 火山引擎：标准 UUID 格式（8-4-4-4-12，大小写不敏感）
	uuidKeyRegex = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// Gitee：通常 40 位纯字母数字，放宽到 30-60 位
	giteeKeyRegex = regexp.MustCompile(`^[A-Za-z0-9]{30,60}$`)
)

// DetectProvider 根据凭证格式识别渠道。
// 纯函数，规则按固定优先级依次匹配，先中者胜；规则集刻意存在重叠，
// 优先级本身就是契约（如 ms- 前缀优先于 Gitee 的长度规则）。
// 管理面与网关共用此函数，避免两套识别逻辑漂移。
func DetectProvider(apiKey string) consts.Provider {
	if apiKey == "" {
		return consts.ProviderUnknown
	}
	if strings.HasPrefix(apiKey, "ms-") {
		return consts.ProviderModelScope
	}
	if strings.HasPrefix(apiKey, "hf_") {
		return consts.ProviderHuggingFace
	}
	if uuidKeyRegex.MatchString(apiKey) {
		return consts.ProviderVolcEngine
	}
	if giteeKeyRegex.MatchString(apiKey) {
		return consts.ProviderGitee
	}
	return consts.ProviderUnknown
}
