package utils

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike 转义 LIKE 通配符，需配合 ESCAPE '\' 使用
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// NormalizeTags 裁剪空白并转小写，丢弃空值，按首次出现顺序去重
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// FirstNonEmpty 返回第一个非空字符串
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Contains 判断切片是否包含元素
func Contains[T comparable](items []T, want T) bool {
	for _, v := range items {
		if v == want {
			return true
		}
	}
	return false
}

// Ptr 返回任意值的指针，用于构造可选的更新字段
func Ptr[T any](v T) *T {
	return &v
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string { return Ptr(s) }

// Float64Ptr 返回 float64 指针
func Float64Ptr(f float64) *float64 { return Ptr(f) }

// BoolPtr 返回布尔指针
func BoolPtr(b bool) *bool { return Ptr(b) }
