package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	"github.com/dumeirei/grocy-backend/internal/common/tracing"
)

// Channel 通知通道
type Channel interface {
	Name() string
	Send(ctx context.Context, event *Event) error
}

// Notifier 事件分发接口
type Notifier interface {
	Dispatch(ctx context.Context, event *Event)
}

// Dispatcher 将事件异步分发到所有通道，失败只记录日志与指标
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

// NewDispatcher 创建分发器，timeout 为单通道发送超时
func NewDispatcher(timeout time.Duration, log *zap.Logger, m *metrics.Metrics, channels ...Channel) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		logger:   log.Named("notify"),
		metrics:  m,
	}
}

// Register 注册通道，须在分发前调用
func (d *Dispatcher) Register(ch Channel) {
	d.channels = append(d.channels, ch)
}

// Channels 已注册通道名
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch 异步发送事件，不阻塞调用方
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) {
	// 脱离请求的取消，保留链路信息
	base := context.WithoutCancel(ctx)
	for _, ch := range d.channels {
		d.wg.Add(1)
		go d.send(base, ch, event)
	}
}

func (d *Dispatcher) send(base context.Context, ch Channel, event *Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Notification channel panicked", logger.Channel(ch.Name()), zap.Any("panic", r))
			d.metrics.RecordNotification(ch.Name(), "error")
		}
	}()

	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	ctx, span := tracing.Start(ctx, "notify."+ch.Name(), tracing.WithOrderNo(event.Order.OrderNo))
	err := ch.Send(ctx, event)
	tracing.End(span, err)

	if err != nil {
		d.logger.Warn("Notification failed",
			logger.Channel(ch.Name()),
			logger.OrderNo(event.Order.OrderNo),
			zap.String("event", event.Type),
			zap.Error(err),
		)
		d.metrics.RecordNotification(ch.Name(), "error")
		return
	}
	d.metrics.RecordNotification(ch.Name(), "ok")
}

// Wait 等待所有在途发送完成
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown 等待在途发送，ctx 结束时放弃等待
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
