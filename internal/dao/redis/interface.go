// Package redis 定义缓存服务接口
// 遵循依赖倒置原则，Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
// 抽象缓存操作，支持 Redis、本地缓存等多种实现
type CacheService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 获取键对应的值（键不存在返回错误）
	GetOrError(ctx context.Context, key string) (string, error)
	// SetIfAbsent 仅当键不存在时写入，返回是否写入成功
	// 用于缓存聚合计数：重算结果只允许填充空位，绝不覆盖并发增量
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// ==================== 计数操作 ====================

	// IncrBy 把键的整数值加 delta，键不存在时按 0 起算
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// IncrementIfPresent 仅当键存在时加 delta，返回是否执行了增量
	// 单条 Lua 脚本保证存在性判断和增量的原子性
	IncrementIfPresent(ctx context.Context, key string, delta int64) (bool, error)
	// CompareAndSwap 键当前值等于 old 时原子替换为 new，返回是否替换成功
	// 基于 WATCH/MULTI 乐观事务，竞争失败返回 false 而非错误
	CompareAndSwap(ctx context.Context, key string, old string, new string, ttl time.Duration) (bool, error)

	// ==================== Key 操作 ====================

	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
	// DeleteByPattern 删除匹配模式的所有键
	DeleteByPattern(ctx context.Context, pattern string) error

	// ==================== Set 集合操作 ====================

	// AddToSet 向集合添加成员
	AddToSet(ctx context.Context, key string, members ...interface{}) error
	// GetSetMembers 获取集合中的所有成员
	GetSetMembers(ctx context.Context, key string) ([]string, error)
	// RemoveFromSet 从集合中移除成员
	RemoveFromSet(ctx context.Context, key string, members ...interface{}) error
	// CountSet 集合成员数
	CountSet(ctx context.Context, key string) (int64, error)
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞的落库和缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步任务，队列满时降级为同步执行
	SubmitTask(action func())
}
