package sms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== MockSender 测试 ====================

func TestMockSender_Send(t *testing.T) {
	sender := NewMockSender()
	assert.Nil(t, sender.Last())

	err := sender.Send(context.Background(), Message{
		Phone:    "13900139000",
		Template: "SMS_ORDER",
		Params:   map[string]string{"order_no": "GR20260101120000123456", "status": "pending"},
	})
	require.NoError(t, err)

	last := sender.Last()
	require.NotNil(t, last)
	assert.Equal(t, "13900139000", last.Phone)
	assert.Equal(t, "SMS_ORDER", last.Template)
	assert.Equal(t, "pending", last.Params["status"])
	assert.False(t, last.SentAt.IsZero())
}

func TestMockSender_Errors(t *testing.T) {
	sender := NewMockSender()

	t.Run("缺少模板", func(t *testing.T) {
		err := sender.Send(context.Background(), Message{Phone: "1"})
		assert.ErrorIs(t, err, ErrTemplateRequired)
	})

	t.Run("注入错误", func(t *testing.T) {
		boom := errors.New("gateway down")
		sender.Err = boom
		err := sender.Send(context.Background(), Message{Phone: "1", Template: "T"})
		assert.ErrorIs(t, err, boom)
	})

	assert.Empty(t, sender.Messages())
}

func TestMockSender_Concurrent(t *testing.T) {
	sender := NewMockSender()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sender.Send(context.Background(), Message{Phone: "1", Template: "T"})
		}()
	}
	wg.Wait()

	assert.Len(t, sender.Messages(), 20)
}

// ==================== AliyunSender 测试 ====================

func TestAliyunSender_Preconditions(t *testing.T) {
	sender, err := NewAliyunSender(&AliyunConfig{AccessKeyID: "id", AccessKeySecret: "secret", SignName: "Grocy"})
	require.NoError(t, err)

	t.Run("缺少模板", func(t *testing.T) {
		assert.ErrorIs(t, sender.Send(context.Background(), Message{Phone: "1"}), ErrTemplateRequired)
	})

	t.Run("上下文已取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := sender.Send(ctx, Message{Phone: "1", Template: "SMS_ORDER"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
