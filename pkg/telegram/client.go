// Package telegram 提供 Telegram Bot API 的最小客户端
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL Bot API 地址
const DefaultBaseURL = "https://api.telegram.org"

// ParseModeMarkdown Markdown 消息格式
const ParseModeMarkdown = "Markdown"

// Chat 会话
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// User 发送者
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Message 消息
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

// Update 更新
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// APIError Bot API 返回的错误
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Sender 消息发送接口
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// Client Bot API 客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// SendMessage 发送文本消息
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	body := map[string]interface{}{"chat_id": chatID, "text": text}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendMessage", body, nil)
}

// GetUpdates 长轮询获取更新，timeout 为服务端挂起秒数
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var updates []Update
	body := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	}
	if err := c.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SetWebhook 注册回调地址
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	body := map[string]interface{}{"url": url}
	if secretToken != "" {
		body["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", body, nil)
}

// DeleteWebhook 删除回调，切换到长轮询前需要调用
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]interface{}{}, nil)
}

func (c *Client) call(ctx context.Context, method string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !result.OK {
		return &APIError{Code: result.ErrorCode, Description: result.Description}
	}
	if out != nil {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
