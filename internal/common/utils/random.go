// Package utils 提供编号生成、字符串处理与分页等通用工具
package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const (
	digits = "0123456789"
	// 排除易混淆字符 0 O I 1
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateOrderNo 生成订单号：前缀 + 秒级时间戳 + 6 位随机数字
func GenerateOrderNo(prefix string) string {
	b := make([]byte, 0, len(prefix)+20)
	b = append(b, prefix...)
	b = time.Now().AppendFormat(b, "20060102150405")
	return string(append(b, randomFrom(digits, 6)...))
}

// GenerateCode 生成指定长度的大写字母数字随机码
func GenerateCode(length int) string {
	return string(randomFrom(codeAlphabet, length))
}

func randomFrom(alphabet string, n int) []byte {
	if n <= 0 {
		return nil
	}
	base := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			// crypto/rand 只在系统熵源不可用时失败
			panic(err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return out
}
