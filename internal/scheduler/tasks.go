package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/cache"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// TelegramOffsetKey 长轮询偏移量在 Redis 中的键
var TelegramOffsetKey = cache.BuildKey(cache.KeyPrefixTelegram, "offset")

// UpdateSource 拉取 Telegram 更新
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
}

// UpdateHandler 处理单条 Telegram 更新
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *telegram.Update) error
}

// TaskHandler 任务处理器
type TaskHandler struct {
	rdb         *redis.Client
	updates     UpdateSource
	handler     UpdateHandler
	pollTimeout int
	logger      *zap.Logger
}

// NewTaskHandler 创建任务处理器，pollTimeout 为长轮询等待秒数
func NewTaskHandler(rdb *redis.Client, updates UpdateSource, handler UpdateHandler, pollTimeout int, log *zap.Logger) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{
		rdb:         rdb,
		updates:     updates,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      log.Named("telegram"),
	}
}

// PollTelegram 拉取一批更新并逐条处理，处理后推进偏移量
// 单条更新处理失败只记录日志，不会阻塞后续更新
func (h *TaskHandler) PollTelegram(ctx context.Context) error {
	offset, err := h.offset(ctx)
	if err != nil {
		return err
	}

	updates, err := h.updates.GetUpdates(ctx, offset, h.pollTimeout)
	if err != nil {
		return err
	}

	for i := range updates {
		update := &updates[i]
		if err := h.handler.HandleUpdate(ctx, update); err != nil {
			h.logger.Warn("Telegram update failed", zap.Int64("update_id", update.UpdateID), zap.Error(err))
		}
		if update.UpdateID >= offset {
			offset = update.UpdateID + 1
			if err := h.rdb.Set(ctx, TelegramOffsetKey, offset, 0).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *TaskHandler) offset(ctx context.Context) (int64, error) {
	v, err := h.rdb.Get(ctx, TelegramOffsetKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	// 长轮询本身会阻塞 pollTimeout 秒，执行超时留出余量
	timeout := time.Duration(handler.pollTimeout)*time.Second + 30*time.Second
	scheduler.Add("PollTelegram", interval, handler.PollTelegram,
		WithTimeout(timeout),
		WithBackoff(time.Minute),
	)
}
