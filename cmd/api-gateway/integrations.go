package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/service/notify"
	"github.com/dumeirei/grocy-backend/pkg/email"
	"github.com/dumeirei/grocy-backend/pkg/kafka"
	"github.com/dumeirei/grocy-backend/pkg/mqtt"
	"github.com/dumeirei/grocy-backend/pkg/oss"
	"github.com/dumeirei/grocy-backend/pkg/sms"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// integrations 外部集成客户端，未启用的保持 nil
type integrations struct {
	bot      *telegram.Client
	hub      *notify.Hub
	uploader oss.Uploader
	mqtt     *mqtt.Client
	kafka    *kafka.Producer
	// 不依赖仓储的通知通道，Telegram 通道在 buildServices 中追加
	channels []notify.Channel
	log      *zap.Logger
}

// newIntegrations 按配置创建外部集成，连接失败时降级为不启用
func newIntegrations(ctx context.Context, cfg *config.Config, log *zap.Logger) *integrations {
	ext := &integrations{log: log}

	ext.uploader = newUploader(&cfg.OSS, log)

	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		ext.bot = telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.BotToken)
	}

	if cfg.Email.Enabled && cfg.Email.APIKey != "" && len(cfg.Email.To) > 0 {
		client := email.NewResendClient(cfg.Email.BaseURL, cfg.Email.APIKey)
		ext.channels = append(ext.channels, notify.NewEmailChannel(client, cfg.Email.From, cfg.Email.To))
	}

	if cfg.SMS.Enabled && len(cfg.SMS.NotifyPhones) > 0 {
		ext.channels = append(ext.channels, notify.NewSMSChannel(newSMSSender(&cfg.SMS, log), cfg.SMS.TemplateID, cfg.SMS.NotifyPhones))
	}

	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(&mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientIDPrefix + utils.GenerateCode(8),
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			QoS:            cfg.MQTT.QoS,
			Retained:       cfg.MQTT.Retained,
			KeepAlive:      time.Duration(cfg.MQTT.KeepAlive) * time.Second,
			ConnectTimeout: time.Duration(cfg.MQTT.ConnectTimeout) * time.Second,
			AutoReconnect:  cfg.MQTT.AutoReconnect,
			TopicPrefix:    cfg.MQTT.TopicPrefix,
		}, log)
		if err := client.Connect(); err != nil {
			log.Error("Failed to connect MQTT broker, channel disabled", zap.Error(err))
		} else {
			ext.mqtt = client
			ext.channels = append(ext.channels, notify.NewMQTTChannel(client, cfg.MQTT.TopicPrefix))
		}
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		ext.kafka = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, time.Duration(cfg.Kafka.WriteTimeout)*time.Second)
		ext.channels = append(ext.channels, notify.NewKafkaChannel(ext.kafka))
	}

	if cfg.Notify.LiveEnabled {
		ext.hub = notify.NewHub(log)
		go ext.hub.Run(ctx)
		ext.channels = append(ext.channels, notify.NewLiveChannel(ext.hub))
	}

	return ext
}

// newUploader 对象存储，未配置阿里云时使用内存实现
func newUploader(cfg *config.OSSConfig, log *zap.Logger) oss.Uploader {
	if cfg.Provider == "aliyun" {
		uploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			BucketName:      cfg.Bucket,
			Domain:          cfg.CustomDomain,
		})
		if err == nil {
			return uploader
		}
		log.Error("Failed to init aliyun oss, falling back to memory", zap.Error(err))
	}
	log.Warn("Using in-memory object storage")
	return oss.NewMockUploader()
}

// newSMSSender 短信发送器，非阿里云时使用 Mock
func newSMSSender(cfg *config.SMSConfig, log *zap.Logger) sms.Sender {
	if cfg.Provider == "aliyun" {
		sender, err := sms.NewAliyunSender(&sms.AliyunConfig{
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			SignName:        cfg.SignName,
		})
		if err == nil {
			return sender
		}
		log.Error("Failed to init aliyun sms, falling back to mock", zap.Error(err))
	}
	return sms.NewMockSender()
}

// Close 释放外部连接
func (e *integrations) Close() {
	if e.mqtt != nil {
		e.mqtt.Disconnect()
	}
	if e.kafka != nil {
		if err := e.kafka.Close(); err != nil {
			e.log.Warn("Failed to close kafka producer", zap.Error(err))
		}
	}
}
