// Package sms 模板短信发送
package sms

import (
	"context"
	"errors"
)

// ErrTemplateRequired 未指定模板
var ErrTemplateRequired = errors.New("sms: template required")

// Message 一条模板短信
type Message struct {
	Phone    string
	Template string
	Params   map[string]string
}

// Sender 短信发送器
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
