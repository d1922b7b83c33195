// Package channel 管理统计页推送通道的记录生命周期
// 浏览器打开统计页时分配通道 ID 并建立 WebSocket；断开事件不可靠，
// 过期记录由 cron 触发的清扫任务兜底删除
package channel

import (
	"context"
	"time"

	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/gateway/websocket"
	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service 推送通道服务
type Service struct {
	channelRepo repository.ChannelRepository
	queue       *task.Queue
}

// NewChannelService 创建推送通道服务实例
func NewChannelService(channelRepo repository.ChannelRepository, queue *task.Queue) *Service {
	return &Service{
		channelRepo: channelRepo,
		queue:       queue,
	}
}

// Create 分配一个新通道
// ID 撞唯一索引就换一个重试，预算耗尽按瞬时错误上抛
func (s *Service) Create(ctx context.Context) (string, error) {
	for i := 0; i < constants.NUM_RETRIES; i++ {
		clientId := uuid.NewString()
		err := s.channelRepo.Create(clientId)
		if err == nil {
			zap.L().Info("channel created", zap.String("clientId", clientId))
			return clientId, nil
		}
		if repository.IsConflict(err) {
			continue
		}
		return "", err
	}
	return "", errorx.New(errorx.CodeTransientStore, "通道 ID 分配重试耗尽")
}

// Exists 通道记录是否有效
// WebSocket 建连时校验，防止凭空捏造的通道 ID 直接连上来
func (s *Service) Exists(ctx context.Context, clientId string) (bool, error) {
	return s.channelRepo.Exists(clientId)
}

// Destroy 销毁通道
// 删记录并断开本机连接，记录不存在视为成功（断开事件可能重复送达）
func (s *Service) Destroy(ctx context.Context, clientId string) error {
	if err := s.channelRepo.DeleteByClientId(clientId); err != nil {
		return err
	}
	if err := websocket.ClientLogout(clientId); err != nil {
		zap.L().Warn("close channel connection failed", zap.String("clientId", clientId), zap.Error(err))
	}
	zap.L().Info("channel destroyed", zap.String("clientId", clientId))
	return nil
}

// FlushExpired 清扫过期通道记录
// 分批删除，每批完成后通过任务队列续作，批删除幂等
func (s *Service) FlushExpired(ctx context.Context) {
	before := time.Now().Add(-constants.CHANNEL_TTL)
	s.queue.Submit("flush_channels", func() error {
		return s.flushBatch(before)
	})
}

// flushBatch 删除一批过期记录，没删完就把自己重新投递
func (s *Service) flushBatch(before time.Time) error {
	deleted, err := s.channelRepo.DeleteExpiredBatch(before, constants.DELETE_BATCH_SIZE)
	if err != nil {
		return err
	}
	if deleted == int64(constants.DELETE_BATCH_SIZE) {
		s.queue.Submit("flush_channels", func() error {
			return s.flushBatch(before)
		})
		return nil
	}
	zap.L().Info("expired channels flushed", zap.Int64("last_batch", deleted))
	return nil
}
