// Package presence 维护统计数字、活跃名单和在线状态推送
// 三个统计口径：注册总数和消息总数走分片计数器，
// 活跃人数走缓存增减、未命中时从数据库重算
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"stranger_chat_server/internal/dao/mysql/repository"
	myredis "stranger_chat_server/internal/dao/redis"
	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/internal/service/counter"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// Service 在线状态与统计服务
type Service struct {
	accountRepo repository.AccountRepository
	cache       myredis.CacheService
	counter     *counter.Service
	notifier    notify.Notifier
	queue       *task.Queue
}

// NewPresenceService 创建在线状态服务实例
func NewPresenceService(
	accountRepo repository.AccountRepository,
	cache myredis.CacheService,
	counterSvc *counter.Service,
	notifier notify.Notifier,
	queue *task.Queue,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		cache:       cache,
		counter:     counterSvc,
		notifier:    notifier,
		queue:       queue,
	}
}

// GetStats 返回全部统计数字
// 注册总数和消息总数由分片计数器维护（计数器自己管缓存）；
// 活跃人数先查缓存，未命中从数据库重算并用 SetIfAbsent 回填
func (s *Service) GetStats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 3)

	numUsers, err := s.counter.GetCount(ctx, constants.NumUsersKey)
	if err != nil {
		return nil, err
	}
	stats[constants.NumUsersKey] = numUsers

	numMessages, err := s.counter.GetCount(ctx, constants.NumMessagesKey)
	if err != nil {
		return nil, err
	}
	stats[constants.NumMessagesKey] = numMessages

	numActive, err := s.activeUserCount(ctx)
	if err != nil {
		return nil, err
	}
	stats[constants.NumActiveUsersKey] = numActive
	return stats, nil
}

// activeUserCount 活跃人数，缓存未命中时从数据库重算
func (s *Service) activeUserCount(ctx context.Context) (int64, error) {
	cached, err := s.cache.Get(ctx, constants.NumActiveUsersKey)
	if err == nil && cached != "" {
		if value, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return value, nil
		}
	}

	count, err := s.accountRepo.CountActive()
	if err != nil {
		return 0, err
	}
	// 重算结果只填空位，不覆盖重算期间的并发增减
	if _, err := s.cache.SetIfAbsent(ctx, constants.NumActiveUsersKey,
		strconv.FormatInt(count, 10), time.Minute*constants.REDIS_TIMEOUT); err != nil {
		zap.L().Warn("fill active user count failed", zap.Error(err))
	}
	return count, nil
}

// UpdateStat 调整活跃人数统计
// 缓存键存在才增减；不存在时重算回填，不会把增量当成完整值
func (s *Service) UpdateStat(ctx context.Context, delta int64) {
	done, err := s.cache.IncrementIfPresent(ctx, constants.NumActiveUsersKey, delta)
	if err != nil {
		zap.L().Warn("update active user count failed", zap.Error(err))
		return
	}
	if !done {
		if _, err := s.activeUserCount(ctx); err != nil {
			zap.L().Warn("recompute active user count failed", zap.Error(err))
		}
	}
}

// UpdateActiveUsers 把账号加入或移出活跃名单
// Redis 集合操作本身原子，无需乐观锁
func (s *Service) UpdateActiveUsers(ctx context.Context, acct *model.Account) {
	if acct == nil {
		return
	}
	var err error
	if acct.IsActive() {
		err = s.cache.AddToSet(ctx, constants.ActiveUsersKey, acct.Handle)
	} else {
		err = s.cache.RemoveFromSet(ctx, constants.ActiveUsersKey, acct.Handle)
	}
	if err != nil {
		zap.L().Warn("update active users set failed", zap.String("handle", acct.Handle), zap.Error(err))
	}
}

// Broadcast 向所有统计页通道推送统计和事件
// withStats 为 true 时携带三项统计数字，event 非空时附带事件标记
func (s *Service) Broadcast(ctx context.Context, withStats bool, event string) {
	payload := make(map[string]int64)
	if withStats {
		stats, err := s.GetStats(ctx)
		if err != nil {
			zap.L().Error("collect stats for broadcast failed", zap.Error(err))
		} else {
			for k, v := range stats {
				payload[k] = v
			}
		}
	}
	if event != "" {
		payload[event] = 1
	}
	if len(payload) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("marshal broadcast payload failed", zap.Error(err))
		return
	}
	if err := s.notifier.BroadcastEvent(ctx, data); err != nil {
		zap.L().Error("broadcast failed", zap.Error(err))
	}
}

// StatusLine 渲染推给每个活跃用户的状态行，统计接口也用它拼展示文字
func StatusLine(stats map[string]int64) string {
	return fmt.Sprintf("%d users / %d available for chat / %d messages sent",
		stats[constants.NumUsersKey],
		stats[constants.NumActiveUsersKey],
		stats[constants.NumMessagesKey])
}

// SendPresenceToAll 向所有活跃用户推送状态行
// 真正的推送在任务队列里执行：优先用 Redis 活跃名单，
// 名单缺失时游标扫库逐页推送并顺手重建名单
func (s *Service) SendPresenceToAll(ctx context.Context) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		zap.L().Error("collect stats for presence failed", zap.Error(err))
		return
	}
	status := StatusLine(stats)

	members, err := s.cache.GetSetMembers(ctx, constants.ActiveUsersKey)
	if err != nil {
		zap.L().Warn("read active users set failed", zap.Error(err))
		members = nil
	}

	if len(members) > 0 {
		s.queue.Submit("send_presence_set", func() error {
			return s.sendPresenceToSet(members, status)
		})
		return
	}

	// 名单缺失，从数据库游标扫
	s.queue.Submit("send_presence_sweep", func() error {
		return s.sweepPresence(repository.Cursor{}, status)
	})
}

// sendPresenceToSet 按活跃名单逐个推送
func (s *Service) sendPresenceToSet(members []string, status string) error {
	ctx := context.Background()
	for _, handle := range members {
		if err := s.notifier.NotifyStatus(ctx, handle, status); err != nil {
			zap.L().Warn("send presence failed", zap.String("handle", handle), zap.Error(err))
		}
	}
	zap.L().Info("sent presence to active users", zap.Int("count", len(members)))
	return nil
}

// sweepPresence 游标扫库推送一页，没扫完就把自己重新投递
// 任务至少执行一次，个别用户可能收到重复状态行，无害
func (s *Service) sweepPresence(cursor repository.Cursor, status string) error {
	ctx := context.Background()
	accounts, err := s.accountRepo.QueryActive(cursor, constants.QUERY_PAGE_SIZE)
	if err != nil {
		return err
	}
	for i := range accounts {
		acct := &accounts[i]
		if err := s.notifier.NotifyStatus(ctx, acct.Handle, status); err != nil {
			zap.L().Warn("send presence failed", zap.String("handle", acct.Handle), zap.Error(err))
		}
		// 顺手重建活跃名单
		if err := s.cache.AddToSet(ctx, constants.ActiveUsersKey, acct.Handle); err != nil {
			zap.L().Warn("rebuild active users set failed", zap.Error(err))
		}
	}
	if len(accounts) == constants.QUERY_PAGE_SIZE {
		next := repository.After(&accounts[len(accounts)-1])
		s.queue.Submit("send_presence_sweep", func() error {
			return s.sweepPresence(next, status)
		})
	}
	return nil
}
