// Package kafka 提供订单事件的 Kafka 生产者
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// 事件头
const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// MessageWriter kafka.Writer 的最小接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者
type Producer struct {
	w MessageWriter
}

// NewProducer 创建生产者，按 key 哈希分区，要求全部副本确认
func NewProducer(brokers []string, topic string, writeTimeout time.Duration) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: writeTimeout,
		},
	}
}

// NewProducerWithWriter 使用自定义 writer 创建生产者
func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{w: w}
}

// PublishJSON 以 JSON 发布事件，key 决定分区
func (p *Producer) PublishJSON(ctx context.Context, key, eventType string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kafka marshal payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderEventVersion, Value: []byte("1")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", eventType, err)
	}
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.w.Close()
}
