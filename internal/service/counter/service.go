// Package counter 实现分片计数器
// 一个逻辑计数器拆成 N 行分片，写入随机落在一行上，读取对分片求和。
// 缓存层维护两类键：聚合值（读加速）和每分片副本（写竞争缓冲），
// 数据库分片行是唯一的持久化真相
package counter

import (
	"context"
	"strconv"
	"time"

	"stranger_chat_server/internal/dao/mysql/repository"
	myredis "stranger_chat_server/internal/dao/redis"
	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"
	"stranger_chat_server/pkg/util/random"

	"go.uber.org/zap"
)

// Service 分片计数器服务
type Service struct {
	shardRepo repository.ShardRepository
	cache     myredis.CacheService
	queue     *task.Queue
}

// NewCounterService 创建计数器服务实例
func NewCounterService(shardRepo repository.ShardRepository, cache myredis.CacheService, queue *task.Queue) *Service {
	return &Service{
		shardRepo: shardRepo,
		cache:     cache,
		queue:     queue,
	}
}

// aggregateKey 聚合值缓存键
func aggregateKey(name string) string {
	return "counter_total_" + name
}

// shardCopyKey 分片副本缓存键
func shardCopyKey(keyName string) string {
	return "counter_shard_" + keyName
}

// Increment 把计数器加 delta（可为负）
// deferDurable 为 true 时落库走异步队列，请求路径只更新缓存。
// 流程：
//  1. 随机选一个分片槽位
//  2. 有限次 CAS 更新该分片的缓存副本，竞争耗尽则失效副本
//  3. 落库：单行事务累加分片行（同步或异步）
//  4. 聚合缓存存在才原子加 delta，不存在绝不填充部分值
func (s *Service) Increment(ctx context.Context, name string, delta int64, deferDurable bool) error {
	if delta == 0 {
		return nil
	}

	cfg, err := s.shardRepo.GetOrCreateConfig(name, constants.DEFAULT_NUM_SHARDS)
	if err != nil {
		return err
	}

	idx := random.GetRandomInt(cfg.NumShards)
	keyName := name + strconv.Itoa(idx)

	s.updateShardCopy(ctx, keyName, delta)

	durable := func() error {
		return s.shardRepo.IncrementSlot(name, keyName, delta)
	}
	if deferDurable {
		s.queue.Submit("counter_increment_"+keyName, durable)
	} else {
		if err := durable(); err != nil {
			return err
		}
	}

	// 聚合缓存只增不建：键不存在说明还没人读过或已过期，
	// 由下一次 GetCount 重算填充
	if _, err := s.cache.IncrementIfPresent(ctx, aggregateKey(name), delta); err != nil {
		zap.L().Warn("increment aggregate cache failed", zap.String("name", name), zap.Error(err))
	}
	return nil
}

// updateShardCopy 有限次 CAS 更新分片缓存副本
// 副本不存在时什么都不做；竞争耗尽时删除副本，宁缺毋错
func (s *Service) updateShardCopy(ctx context.Context, keyName string, delta int64) {
	key := shardCopyKey(keyName)
	for i := 0; i < constants.NUM_RETRIES; i++ {
		old, err := s.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("read shard copy failed", zap.String("key", key), zap.Error(err))
			return
		}
		if old == "" {
			return
		}
		oldVal, err := strconv.ParseInt(old, 10, 64)
		if err != nil {
			// 脏数据，直接失效
			_ = s.cache.Delete(ctx, key)
			return
		}
		newVal := strconv.FormatInt(oldVal+delta, 10)
		swapped, err := s.cache.CompareAndSwap(ctx, key, old, newVal, time.Minute*constants.REDIS_TIMEOUT)
		if err != nil {
			zap.L().Warn("cas shard copy failed", zap.String("key", key), zap.Error(err))
			return
		}
		if swapped {
			return
		}
	}
	// 重试预算耗尽，失效副本避免留下旧值
	if err := s.cache.Delete(ctx, key); err != nil {
		zap.L().Warn("invalidate shard copy failed", zap.String("key", keyName), zap.Error(err))
	}
}

// GetCount 读取计数器当前值
// 优先走聚合缓存；未命中则游标分页对数据库分片求和，
// 结果用 SetIfAbsent 回填，避免覆盖重算期间的并发增量
func (s *Service) GetCount(ctx context.Context, name string) (int64, error) {
	cached, err := s.cache.Get(ctx, aggregateKey(name))
	if err == nil && cached != "" {
		if value, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return value, nil
		}
	}

	var total int64
	afterKey := ""
	for {
		shards, err := s.shardRepo.FindPage(name, afterKey, constants.QUERY_PAGE_SIZE)
		if err != nil {
			return 0, err
		}
		for _, shard := range shards {
			total += shard.Count
			// 顺手刷新分片副本，后续写入可以走 CAS 快路径
			_ = s.cache.Set(ctx, shardCopyKey(shard.KeyName),
				strconv.FormatInt(shard.Count, 10), time.Minute*constants.REDIS_TIMEOUT)
		}
		if len(shards) < constants.QUERY_PAGE_SIZE {
			break
		}
		afterKey = shards[len(shards)-1].KeyName
	}

	if _, err := s.cache.SetIfAbsent(ctx, aggregateKey(name),
		strconv.FormatInt(total, 10), time.Minute*constants.REDIS_TIMEOUT); err != nil {
		zap.L().Warn("fill aggregate cache failed", zap.String("name", name), zap.Error(err))
	}
	return total, nil
}

// SetShardCount 把计数器分片数调到目标值，只增不减
// 写热点高的计数器调大分片数可以摊薄行锁竞争；
// 目标不高于当前分片数时是空操作，同一目标值重复提交幂等
func (s *Service) SetShardCount(name string, num int) error {
	if num <= 0 {
		return errorx.New(errorx.CodeInvalidParam, "分片数必须为正数")
	}
	return s.shardRepo.SetShardCount(name, num, constants.DEFAULT_NUM_SHARDS)
}

// Reset 把计数器清零
// 分片行分批删除，每批完成后通过任务队列续作，删完再清配置和缓存。
// 任务至少执行一次，批删除本身幂等，重复执行安全
func (s *Service) Reset(ctx context.Context, name string) {
	s.queue.Submit("counter_reset_"+name, func() error {
		return s.resetBatch(name)
	})
}

// resetBatch 删除一批分片，没删完就把自己重新投递
func (s *Service) resetBatch(name string) error {
	deleted, err := s.shardRepo.DeleteBatch(name, constants.DELETE_BATCH_SIZE)
	if err != nil {
		return err
	}
	if deleted == int64(constants.DELETE_BATCH_SIZE) {
		// 可能还有剩余，续作
		s.queue.Submit("counter_reset_"+name, func() error {
			return s.resetBatch(name)
		})
		return nil
	}

	if err := s.shardRepo.DeleteConfig(name); err != nil {
		return err
	}

	ctx := context.Background()
	if err := s.cache.Delete(ctx, aggregateKey(name)); err != nil {
		zap.L().Warn("delete aggregate cache failed", zap.String("name", name), zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, shardCopyKey(name)+"*"); err != nil {
		zap.L().Warn("delete shard copies failed", zap.String("name", name), zap.Error(err))
	}
	zap.L().Info("counter reset", zap.String("name", name))
	return nil
}
