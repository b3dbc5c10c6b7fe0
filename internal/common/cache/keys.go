package cache

import "strings"

// 键前缀
const (
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixLock      = "lock:"
	KeyPrefixTelegram  = "telegram:"
)

// BuildKey 以冒号拼接键，无后缀时去掉前缀末尾的冒号
func BuildKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(prefix, ":")
	}
	return prefix + strings.Join(parts, ":")
}
