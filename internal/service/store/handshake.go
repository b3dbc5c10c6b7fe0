package store

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// LinkResult 消息处理结果
type LinkResult string

const (
	LinkPrompt        LinkResult = "prompt"
	LinkLinked        LinkResult = "linked"
	LinkConfirmed     LinkResult = "confirmed"
	LinkIgnored       LinkResult = "ignored"
	LinkRejected      LinkResult = "rejected"
	LinkNotConfigured LinkResult = "not_configured"
)

// 机器人回复
const (
	replyPrompt        = "Welcome! Send the store password to receive order notifications in this chat."
	replyLinked        = "This chat is now linked. New orders will be posted here."
	replyConfirmed     = "This chat is already linked to the store."
	replyIgnored       = "This chat is linked. Order notifications will appear here."
	replyWrongPassword = "Incorrect password."
	replyOtherChat     = "This store is already linked to another chat."
	replyNotConfigured = "The store is not configured yet."
)

// LinkOutcome 消息处理结果与回复内容
type LinkOutcome struct {
	Result LinkResult `json:"result"`
	Reply  string     `json:"reply"`
}

// HandleMessage 处理机器人收到的文本，未绑定时校验密码并以先到者为准绑定会话
func (s *StoreService) HandleMessage(ctx context.Context, chatID int64, text string) (*LinkOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "/start" || strings.HasPrefix(text, "/start ") {
		return &LinkOutcome{Result: LinkPrompt, Reply: replyPrompt}, nil
	}

	owner, err := s.repo.GetPrimary(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.outcome(LinkNotConfigured, replyNotConfigured), nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if owner.Linked() {
		if *owner.OwnerChatID != chatID {
			return s.outcome(LinkRejected, replyOtherChat), nil
		}
		if s.hasher.Verify(text, owner.Password) {
			return s.outcome(LinkConfirmed, replyConfirmed), nil
		}
		return s.outcome(LinkIgnored, replyIgnored), nil
	}

	if !s.hasher.Verify(text, owner.Password) {
		return s.outcome(LinkRejected, replyWrongPassword), nil
	}

	rows, err := s.repo.LinkChat(ctx, owner.ID, chatID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		// 并发绑定失败，按最新状态回复
		current, err := s.repo.GetByID(ctx, owner.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if current.Linked() && *current.OwnerChatID == chatID {
			return s.outcome(LinkConfirmed, replyConfirmed), nil
		}
		return s.outcome(LinkRejected, replyOtherChat), nil
	}

	s.logger.Info("Store owner chat linked", zap.Int64("owner_id", owner.ID), logger.ChatID(chatID))
	return s.outcome(LinkLinked, replyLinked), nil
}

func (s *StoreService) outcome(result LinkResult, reply string) *LinkOutcome {
	s.metrics.RecordStoreLink(string(result))
	return &LinkOutcome{Result: result, Reply: reply}
}

// HandleUpdate 处理 Telegram 更新并回复，非文本消息忽略
func (s *StoreService) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	if update.Message == nil || update.Message.Text == "" {
		return nil
	}
	chatID := update.Message.Chat.ID

	out, err := s.HandleMessage(ctx, chatID, update.Message.Text)
	if err != nil {
		return err
	}
	if s.bot == nil {
		return nil
	}
	if err := s.bot.SendMessage(ctx, chatID, out.Reply, ""); err != nil {
		s.logger.Warn("Failed to reply to chat", logger.ChatID(chatID), zap.Error(err))
		return errors.ErrExternalService.WithError(err)
	}
	return nil
}
