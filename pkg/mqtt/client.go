// Package mqtt 提供 MQTT 客户端封装
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Config MQTT 配置
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	Retained       bool
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	AutoReconnect  bool
	TopicPrefix    string
}

// Publisher 消息发布接口
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Client MQTT 客户端
type Client struct {
	config *Config
	client mqtt.Client
	logger *zap.Logger
}

// NewClient 创建 MQTT 客户端
func NewClient(config *Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{config: config, logger: logger.Named("mqtt")}
}

// Connect 连接 MQTT Broker
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(c.config.KeepAlive)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetAutoReconnect(c.config.AutoReconnect)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.logger.Info("MQTT connected", zap.String("broker", c.config.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		c.logger.Info("MQTT reconnecting")
	})

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("mqtt connect timeout: %s", c.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() {
	if c.IsConnected() {
		c.client.Disconnect(250)
		c.logger.Info("MQTT disconnected")
	}
}

// IsConnected 检查是否已连接
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Topic 拼接带前缀的主题
func (c *Client) Topic(parts ...string) string {
	return Topic(c.config.TopicPrefix, parts...)
}

// Publish 发布消息，ctx 结束时放弃等待
func (c *Client) Publish(ctx context.Context, topic string, payload interface{}) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	data, err := Encode(payload)
	if err != nil {
		return err
	}

	token := c.client.Publish(topic, c.config.QoS, c.config.Retained, data)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", topic, err)
		}
		return nil
	}
}

// Topic 以 prefix 拼接主题段
func Topic(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, "/")
}

// Encode 序列化消息体
func Encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mqtt marshal payload: %w", err)
		}
		return data, nil
	}
}
