package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dumeirei/grocy-backend/internal/common/crypto"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/pkg/email"
	"github.com/dumeirei/grocy-backend/pkg/mqtt"
	"github.com/dumeirei/grocy-backend/pkg/sms"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// ==================== 邮件 ====================

// EmailChannel 邮件通道
type EmailChannel struct {
	sender email.Sender
	from   string
	to     []string
}

// NewEmailChannel 创建邮件通道
func NewEmailChannel(sender email.Sender, from string, to []string) *EmailChannel {
	return &EmailChannel{sender: sender, from: from, to: to}
}

// Name 通道名
func (c *EmailChannel) Name() string { return "email" }

// Send 发送订单摘要邮件
func (c *EmailChannel) Send(ctx context.Context, event *Event) error {
	if len(c.to) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	summary := &email.OrderSummary{
		OrderNo:       event.Order.OrderNo,
		CustomerName:  event.Customer.Name,
		CustomerEmail: event.Customer.Email,
		Phone:         event.Order.Phone,
		Address:       event.Order.Address,
		Status:        event.Order.Status,
		Total:         event.Order.Total.StringFixed(2),
		Items:         make([]email.OrderLine, 0, len(event.Order.Items)),
	}
	for _, item := range event.Order.Items {
		summary.Items = append(summary.Items, email.OrderLine{
			Name:  item.Name,
			Qty:   item.Qty,
			Price: item.PriceAtOrder.StringFixed(2),
		})
	}

	html, err := email.RenderOrder(summary)
	if err != nil {
		return err
	}
	subject := email.OrderSubject(summary)
	if event.Type == EventOrderStatusChanged {
		subject = fmt.Sprintf("Order %s is now %s", summary.OrderNo, summary.Status)
	}

	err = c.sender.Send(ctx, &email.Message{
		From:    c.from,
		To:      c.to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("email to %s: %w", crypto.MaskEmail(c.to[0]), err)
	}
	return nil
}

// ==================== Telegram ====================

// ChatResolver 解析接收通知的会话
type ChatResolver interface {
	ResolveChat(ctx context.Context) (int64, error)
}

// OwnerRepository 店主查询
type OwnerRepository interface {
	GetPrimary(ctx context.Context) (*models.StoreOwner, error)
}

// SettingsRepository 站点设置查询
type SettingsRepository interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// OwnerChatResolver 依次使用已绑定店主会话、站点设置中的会话、配置的默认会话
type OwnerChatResolver struct {
	owners   OwnerRepository
	settings SettingsRepository
	fallback int64
}

// NewOwnerChatResolver 创建会话解析器
func NewOwnerChatResolver(owners OwnerRepository, settings SettingsRepository, fallback int64) *OwnerChatResolver {
	return &OwnerChatResolver{owners: owners, settings: settings, fallback: fallback}
}

// ResolveChat 返回目标会话
func (r *OwnerChatResolver) ResolveChat(ctx context.Context) (int64, error) {
	if r.owners != nil {
		if owner, err := r.owners.GetPrimary(ctx); err == nil && owner.Linked() {
			return *owner.OwnerChatID, nil
		}
	}
	if r.settings != nil {
		if s, err := r.settings.Get(ctx); err == nil && s.TelegramChatID != "" {
			if id, err := strconv.ParseInt(strings.TrimSpace(s.TelegramChatID), 10, 64); err == nil {
				return id, nil
			}
		}
	}
	if r.fallback != 0 {
		return r.fallback, nil
	}
	return 0, fmt.Errorf("no telegram chat linked")
}

// TelegramChannel Telegram 通道
type TelegramChannel struct {
	sender   telegram.Sender
	resolver ChatResolver
}

// NewTelegramChannel 创建 Telegram 通道
func NewTelegramChannel(sender telegram.Sender, resolver ChatResolver) *TelegramChannel {
	return &TelegramChannel{sender: sender, resolver: resolver}
}

// Name 通道名
func (c *TelegramChannel) Name() string { return "telegram" }

// Send 向店主会话发送 Markdown 订单消息
func (c *TelegramChannel) Send(ctx context.Context, event *Event) error {
	chatID, err := c.resolver.ResolveChat(ctx)
	if err != nil {
		return err
	}
	return c.sender.SendMessage(ctx, chatID, FormatTelegram(event), telegram.ParseModeMarkdown)
}

// FormatTelegram 生成 Telegram 消息文本
func FormatTelegram(event *Event) string {
	var b strings.Builder
	if event.Type == EventOrderStatusChanged {
		b.WriteString("*Order Status Updated*\n\n")
	} else {
		b.WriteString("*New Order Received!*\n\n")
	}
	fmt.Fprintf(&b, "*Order ID:* %s\n", event.Order.OrderNo)
	fmt.Fprintf(&b, "*Customer:* %s (%s)\n", event.Customer.Name, event.Customer.Email)
	fmt.Fprintf(&b, "*Phone:* %s\n", event.Order.Phone)
	fmt.Fprintf(&b, "*Shipping Address:* %s\n", event.Order.Address)
	fmt.Fprintf(&b, "*Total:* $%s\n", event.Order.Total.StringFixed(2))
	fmt.Fprintf(&b, "*Status:* %s\n\n", event.Order.Status)
	b.WriteString("*Items:*\n")
	for _, item := range event.Order.Items {
		fmt.Fprintf(&b, "- %s (x%d) @ $%s each\n", item.Name, item.Qty, item.PriceAtOrder.StringFixed(2))
	}
	return b.String()
}

// ==================== 短信 ====================

// SMSChannel 短信通道，模板参数为 order_no 与 status
type SMSChannel struct {
	sender   sms.Sender
	template string
	phones   []string
}

// NewSMSChannel 创建短信通道
func NewSMSChannel(sender sms.Sender, template string, phones []string) *SMSChannel {
	return &SMSChannel{sender: sender, template: template, phones: phones}
}

// Name 通道名
func (c *SMSChannel) Name() string { return "sms" }

// Send 向所有配置的号码发送订单通知，返回第一个错误
func (c *SMSChannel) Send(ctx context.Context, event *Event) error {
	var firstErr error
	for _, phone := range c.phones {
		err := c.sender.Send(ctx, sms.Message{
			Phone:    phone,
			Template: c.template,
			Params:   map[string]string{"order_no": event.Order.OrderNo, "status": event.Order.Status},
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sms to %s: %w", crypto.MaskPhone(phone), err)
		}
	}
	return firstErr
}

// ==================== MQTT ====================

// MQTTChannel MQTT 通道
type MQTTChannel struct {
	publisher mqtt.Publisher
	prefix    string
}

// NewMQTTChannel 创建 MQTT 通道
func NewMQTTChannel(publisher mqtt.Publisher, prefix string) *MQTTChannel {
	return &MQTTChannel{publisher: publisher, prefix: prefix}
}

// Name 通道名
func (c *MQTTChannel) Name() string { return "mqtt" }

// Send 发布到 <prefix>orders/<event>
func (c *MQTTChannel) Send(ctx context.Context, event *Event) error {
	return c.publisher.Publish(ctx, mqtt.Topic(c.prefix, "orders", event.Type), event)
}

// ==================== Kafka ====================

// EventPublisher Kafka 事件发布
type EventPublisher interface {
	PublishJSON(ctx context.Context, key, eventType string, payload interface{}) error
}

// KafkaChannel Kafka 通道
type KafkaChannel struct {
	publisher EventPublisher
}

// NewKafkaChannel 创建 Kafka 通道
func NewKafkaChannel(publisher EventPublisher) *KafkaChannel {
	return &KafkaChannel{publisher: publisher}
}

// Name 通道名
func (c *KafkaChannel) Name() string { return "kafka" }

// Send 以订单号为 key 发布事件
func (c *KafkaChannel) Send(ctx context.Context, event *Event) error {
	return c.publisher.PublishJSON(ctx, event.Order.OrderNo, event.Type, event)
}
