// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "grocy"

var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics 指标收集器，nil 接收者上的方法均为空操作
type Metrics struct {
	gatherer prometheus.Gatherer

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	orders        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reviewActions *prometheus.CounterVec
	storeLinks    *prometheus.CounterVec
}

// Init 在默认注册表上创建收集器
func Init(namespace string) *Metrics {
	return New(namespace, prometheus.DefaultRegisterer)
}

// New 在指定注册表上创建收集器；reg 同时实现 Gatherer 时由 Handler 暴露
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	f := promauto.With(reg)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}

	m := &Metrics{
		requests: counter("http_requests_total", "HTTP requests by route and status", "method", "path", "status"),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   latencyBuckets,
		}, []string{"method", "path"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
		orders:        counter("orders_total", "Order placement attempts by outcome", "status"),
		notifications: counter("notifications_total", "Order notifications by channel and result", "channel", "result"),
		reviewActions: counter("review_actions_total", "Review writes by action", "action"),
		storeLinks:    counter("store_link_attempts_total", "Store-owner chat link attempts by result", "result"),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// RecordOrder 记录下单结果 created / rejected / replayed
func (m *Metrics) RecordOrder(status string) {
	if m != nil {
		m.orders.WithLabelValues(status).Inc()
	}
}

// RecordNotification 记录通知发送结果 ok / error
func (m *Metrics) RecordNotification(channel, result string) {
	if m != nil {
		m.notifications.WithLabelValues(channel, result).Inc()
	}
}

// RecordReviewAction 记录评价写操作
func (m *Metrics) RecordReviewAction(action string) {
	if m != nil {
		m.reviewActions.WithLabelValues(action).Inc()
	}
}

// RecordStoreLink 记录店主绑定结果
func (m *Metrics) RecordStoreLink(result string) {
	if m != nil {
		m.storeLinks.WithLabelValues(result).Inc()
	}
}
