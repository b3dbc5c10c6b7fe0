package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// OrderLine 订单行
type OrderLine struct {
	Name  string
	Qty   int
	Price string
}

// OrderSummary 订单邮件数据
type OrderSummary struct {
	OrderNo       string
	CustomerName  string
	CustomerEmail string
	Phone         string
	Address       string
	Status        string
	Total         string
	Items         []OrderLine
}

var statusColors = map[string]string{
	"pending":   "#ffc107",
	"confirmed": "#0d6efd",
	"shipped":   "#17a2b8",
	"delivered": "#28a745",
}

// StatusColor 返回状态徽章颜色，未知状态为红色
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return "#dc3545"
}

var orderTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"statusColor": StatusColor,
}).Parse(`<div style="font-family:'Inter',sans-serif;max-width:620px;margin:auto;padding:36px;background:#fff;border-radius:18px;">
  <h1 style="font-size:28px;color:#111;margin:0 0 24px;">New order received</h1>
  <section style="margin-bottom:24px;">
    <h2 style="font-size:18px;color:#0a84ff;">Customer</h2>
    <p>Name: {{.CustomerName}}</p>
    <p>Email: {{.CustomerEmail}}</p>
    <p>Phone: {{.Phone}}</p>
  </section>
  <section style="margin-bottom:24px;">
    <h2 style="font-size:18px;color:#0a84ff;">Order</h2>
    <p>Order: #{{.OrderNo}}</p>
    <p>Status: <span style="padding:4px 14px;border-radius:12px;color:#fff;background-color:{{statusColor .Status}};">{{.Status}}</span></p>
    <p style="font-weight:700;">Total: ${{.Total}}</p>
  </section>
  <section style="margin-bottom:24px;">
    <h2 style="font-size:18px;color:#111;">Items</h2>
    {{range .Items}}<div style="padding:10px 0;border-bottom:1px solid #eee;">
      <p style="margin:0;font-weight:500;">{{.Name}}</p>
      <p style="margin:4px 0 0;color:#888;">Qty: {{.Qty}} @ ${{.Price}}</p>
    </div>
    {{end}}
  </section>
  <section>
    <h2 style="font-size:18px;color:#0a84ff;">Shipping address</h2>
    <p>{{.Address}}</p>
  </section>
</div>`))

// RenderOrder 渲染订单邮件
func RenderOrder(summary *OrderSummary) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}

// OrderSubject 订单邮件标题
func OrderSubject(summary *OrderSummary) string {
	return fmt.Sprintf("New order %s from %s", summary.OrderNo, summary.CustomerName)
}
