package consts

import "time"

// Provider 渠道标识，由凭证格式识别得到
type Provider = string

const (
	ProviderVolcEngine  Provider = "VolcEngine"
	ProviderGitee       Provider = "Gitee"
	ProviderModelScope  Provider = "ModelScope"
	ProviderHuggingFace Provider = "HuggingFace"
	ProviderUnknown     Provider = "Unknown"

	// ProviderAuto 不限定渠道，从池中轮询任意可用 Key
	ProviderAuto Provider = "auto"
)

// 各渠道上游接口地址
const (
	VolcAPIURL        = "https://ark.cn-beijing.volces.com/api/v3/images/generations"
	GiteeAPIURL       = "https://ai.gitee.com/v1/images/generations"
	ModelScopeAPIBase = "https://api-inference.modelscope.cn/v1"
)

// 各渠道默认模型
const (
	VolcDefaultModel        = "doubao-seedream-4-0-250828"
	GiteeDefaultModel       = "z-image-turbo"
	ModelScopeDefaultModel  = "Tongyi-MAI/Z-Image-Turbo"
	HuggingFaceDefaultModel = "black-forest-labs/FLUX.1-schnell"
)

// 各渠道默认出图尺寸
const (
	VolcDefaultSize            = "4096x4096"
	VolcDefaultEditSize        = "2048x2048"
	GiteeDefaultSize           = "1024x1024"
	GiteeDefaultEditSize       = "1024x1024"
	ModelScopeDefaultSize      = "2048x2048"
	ModelScopeDefaultEditSize  = "1024x1024"
	HuggingFaceDefaultSize     = "1024x1024"
	HuggingFaceDefaultEditSize = "1024x1024"
)

// DefaultPrompt 请求中没有任何文本时使用的兜底提示词
const DefaultPrompt = "A beautiful scenery"

// FailedPlaceholder 生成结果为空时渲染的占位文案，不允许返回空消息
const FailedPlaceholder = "图片生成失败"

// ModelScope 异步任务轮询参数：60 次 x 5 秒，约 5 分钟上限
const (
	MaxPollAttempts = 60
	PollInterval    = 5 * time.Second
)

// BanDuration Key 封禁时长，到期后在下次选取时惰性解除
const BanDuration = 24 * time.Hour

const (
	DefaultPort = "10001"
	// DefaultAPITimeout 上游调用超时（秒），与端到端请求超时保持一致
	DefaultAPITimeout = 300
)

const ConfigFileName = "ui-config.json"
