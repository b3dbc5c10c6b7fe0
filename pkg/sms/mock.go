package sms

import (
	"context"
	"sync"
	"time"
)

// SentMessage MockSender 记录的一条短信
type SentMessage struct {
	Message
	SentAt time.Time
}

// MockSender 只记录不发送，用于开发环境与测试
type MockSender struct {
	mu   sync.Mutex
	sent []SentMessage
	// Err 非 nil 时 Send 直接返回该错误且不记录
	Err error
}

// NewMockSender 创建 MockSender
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send 记录消息
func (s *MockSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if msg.Template == "" {
		return ErrTemplateRequired
	}
	s.sent = append(s.sent, SentMessage{Message: msg, SentAt: time.Now()})
	return nil
}

// Messages 已记录消息的副本
func (s *MockSender) Messages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}

// Last 最后一条消息，没有时为 nil
func (s *MockSender) Last() *SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	last := s.sent[len(s.sent)-1]
	return &last
}
