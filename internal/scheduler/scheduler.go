// Package scheduler 提供后台任务调度
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTaskTimeout = 5 * time.Minute

var errPanicked = errors.New("task panicked")

// TaskFunc 任务函数，ctx 在调度器停止或单次超时时取消
type TaskFunc func(ctx context.Context) error

// Task 周期任务，两次执行之间间隔 Interval，失败后间隔按倍数退避至 MaxBackoff
type Task struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	MaxBackoff time.Duration
	Run        TaskFunc
}

// TaskOption 任务选项
type TaskOption func(*Task)

// WithTimeout 单次执行超时
func WithTimeout(d time.Duration) TaskOption {
	return func(t *Task) { t.Timeout = d }
}

// WithBackoff 连续失败时的最大等待间隔
func WithBackoff(limit time.Duration) TaskOption {
	return func(t *Task) { t.MaxBackoff = limit }
}

// Scheduler 后台任务调度器
type Scheduler struct {
	tasks  []*Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewScheduler 创建调度器
func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel, logger: log.Named("scheduler")}
}

// Add 注册任务，需在 Start 之前调用
func (s *Scheduler) Add(name string, interval time.Duration, run TaskFunc, opts ...TaskOption) {
	t := &Task{Name: name, Interval: interval, Timeout: defaultTaskTimeout, Run: run}
	for _, opt := range opts {
		opt(t)
	}
	if t.MaxBackoff < t.Interval {
		t.MaxBackoff = t.Interval
	}
	s.tasks = append(s.tasks, t)
}

// Tasks 已注册的任务名
func (s *Scheduler) Tasks() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	return names
}

// Start 启动全部任务，每个任务立即执行一次
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler starting", zap.Int("tasks", len(s.tasks)))
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(t)
	}
}

// Stop 取消任务上下文并等待进行中的执行返回
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(t *Task) {
	defer s.wg.Done()
	log := s.logger.With(zap.String("task", t.Name))

	timer := time.NewTimer(0)
	defer timer.Stop()

	wait := t.Interval
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.execute(log, t); err != nil {
			wait = min(max(wait*2, t.Interval), t.MaxBackoff)
		} else {
			wait = t.Interval
		}
		timer.Reset(wait)
	}
}

func (s *Scheduler) execute(log *zap.Logger, t *Task) (err error) {
	ctx, cancel := context.WithTimeout(s.ctx, t.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Task panicked", zap.Any("panic", r))
			err = errPanicked
		}
	}()

	start := time.Now()
	if err = t.Run(ctx); err != nil {
		if s.ctx.Err() == nil {
			log.Warn("Task failed", zap.Error(err))
		}
		return err
	}
	log.Debug("Task completed", zap.Duration("latency", time.Since(start)))
	return nil
}
