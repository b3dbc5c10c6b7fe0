package sms

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	"github.com/alibabacloud-go/tea/tea"
)

const defaultAliyunEndpoint = "dysmsapi.aliyuncs.com"

// AliyunConfig 阿里云短信配置
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	Endpoint        string
}

// AliyunSender 阿里云 dysms 发送器
type AliyunSender struct {
	client   *dysmsapi.Client
	signName string
}

// NewAliyunSender 创建阿里云发送器
func NewAliyunSender(cfg *AliyunConfig) (*AliyunSender, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultAliyunEndpoint
	}
	client, err := dysmsapi.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("sms: new aliyun client: %w", err)
	}
	return &AliyunSender{client: client, signName: cfg.SignName}, nil
}

// Send 发送模板短信，网关返回码非 OK 视为失败
func (s *AliyunSender) Send(ctx context.Context, msg Message) error {
	if msg.Template == "" {
		return ErrTemplateRequired
	}
	// SDK 调用不接受 context，只能在发出前检查
	if err := ctx.Err(); err != nil {
		return err
	}
	params, err := json.Marshal(msg.Params)
	if err != nil {
		return fmt.Errorf("sms: encode params: %w", err)
	}

	resp, err := s.client.SendSms(&dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(msg.Phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(msg.Template),
		TemplateParam: tea.String(string(params)),
	})
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", msg.Phone, err)
	}
	if resp.Body == nil {
		return fmt.Errorf("sms: send to %s: empty response", msg.Phone)
	}
	if code := tea.StringValue(resp.Body.Code); code != "OK" {
		return fmt.Errorf("sms: send to %s: %s %s", msg.Phone, code, tea.StringValue(resp.Body.Message))
	}
	return nil
}
