// Package qrcode 生成店主绑定用的 Telegram 深链接二维码
package qrcode

import (
	"encoding/base64"
	"errors"
	"net/url"

	"github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// ErrEmptyContent 二维码内容为空
var ErrEmptyContent = errors.New("qrcode: empty content")

// Generator PNG 二维码生成器
type Generator struct {
	size  int
	level qrcode.RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 边长（像素）
func WithSize(size int) Option {
	return func(g *Generator) { g.size = size }
}

// WithRecoveryLevel 纠错级别
func WithRecoveryLevel(level qrcode.RecoveryLevel) Option {
	return func(g *Generator) { g.level = level }
}

// NewGenerator 默认 256 像素、15% 纠错
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{size: 256, level: qrcode.Medium}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PNG 编码为 PNG
func (g *Generator) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	return qrcode.Encode(content, g.level, g.size)
}

// DataURL 编码为可直接嵌入 <img> 的 data URL
func (g *Generator) DataURL(content string) (string, error) {
	data, err := g.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// TelegramDeepLink https://t.me/<bot>?start=<payload>
func TelegramDeepLink(botUsername, payload string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     "t.me",
		Path:     "/" + botUsername,
		RawQuery: "start=" + url.QueryEscape(payload),
	}
	return u.String()
}
