package pkg

import "strings"

// MaskKey 凭证脱敏，仅保留前 6 位与后 4 位。
// 任何日志与接口返回中的凭证都必须经过此函数。
func MaskKey(key string) string {
	if len(key) <= 10 {
		return strings.Repeat("*", len(key))
	}
	return key[:6] + "..." + key[len(key)-4:]
}
