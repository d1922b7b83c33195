package repository

import (
	"time"

	"stranger_chat_server/internal/model"

	"gorm.io/gorm"
)

// Cursor 等待池/活跃池的游标
// 以 (last_activity, handle) 二元组定位，分页查询可在超时后从上次位置续扫
// 零值游标表示从头开始
type Cursor struct {
	LastActivity time.Time
	Handle       string
}

// IsZero 是否为起始游标
func (c Cursor) IsZero() bool {
	return c.LastActivity.IsZero() && c.Handle == ""
}

// After 返回指向给定账号之后的游标
func After(acct *model.Account) Cursor {
	return Cursor{LastActivity: acct.LastActivity, Handle: acct.Handle}
}

// AccountRepository 账号数据访问接口
//
// Persist 是刻意的弱约定：每个账号一次独立写入，互相之间没有顺序和
// 原子性保证。配对双方一侧写成功另一侧写失败是常态路径，调用方必须
// 容忍（靠使用时的互指校验自愈），这里只负责把失败如实汇总上抛。
type AccountRepository interface {
	// GetOrCreate 原子化取或建，已存在时绝不覆盖，返回是否新建
	GetOrCreate(handle string) (*model.Account, bool, error)
	// FindByHandle 按 handle 查找账号
	FindByHandle(handle string) (*model.Account, error)
	// QueryWaiting 分页查询等待池（started && available），按最久等待优先排序
	// excludeChatting 为 true 时过滤掉已持有配对指针的账号
	QueryWaiting(excludeChatting bool, cursor Cursor, limit int) ([]model.Account, error)
	// QueryActive 分页查询活跃账号（started && available），供在线状态清扫使用
	QueryActive(cursor Cursor, limit int) ([]model.Account, error)
	// Persist 持久化一个或多个账号，逐个独立写入
	Persist(accounts ...*model.Account) error
	// CountAll 账号总数（统计重算兜底）
	CountAll() (int64, error)
	// CountActive 活跃账号数（统计重算兜底）
	CountActive() (int64, error)
}

// ShardRepository 计数器分片数据访问接口
// 所有写操作都是单行事务，绝不跨行
type ShardRepository interface {
	// GetOrCreateConfig 取或建分片数配置，缺省分片数由调用方传入
	GetOrCreateConfig(name string, defaultShards int) (*model.ShardConfig, error)
	// SetShardCount 单行事务内把分片数调到目标值，只增不减
	// 目标不高于当前值时不动，重复提交幂等
	SetShardCount(name string, num int, defaultShards int) error
	// IncrementSlot 单行事务内把指定分片槽位加 delta（不存在则先建）
	IncrementSlot(name string, keyName string, delta int64) error
	// FindPage 按 key_name 升序分页读取某计数器的分片，afterKey 为续扫游标
	FindPage(name string, afterKey string, limit int) ([]model.Shard, error)
	// DeleteBatch 批量删除某计数器的分片，返回删除行数；删完返回 0
	DeleteBatch(name string, limit int) (int64, error)
	// DeleteConfig 删除分片数配置
	DeleteConfig(name string) error
}

// ChannelRepository 推送通道数据访问接口
type ChannelRepository interface {
	// Create 写入一条通道记录，clientId 冲突返回错误
	Create(clientId string) error
	// Exists 通道记录是否存在
	Exists(clientId string) (bool, error)
	// DeleteByClientId 删除指定通道记录，不存在视为成功
	DeleteByClientId(clientId string) error
	// FindPage 按 id 升序分页读取通道记录，afterId 为续扫游标
	FindPage(afterId uint, limit int) ([]model.Channel, error)
	// DeleteExpiredBatch 批量删除创建时间早于 before 的通道记录，返回删除行数
	DeleteExpiredBatch(before time.Time, limit int) (int64, error)
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db      *gorm.DB
	Account AccountRepository
	Shard   ShardRepository
	Channel ChannelRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		Account: NewAccountRepository(db),
		Shard:   NewShardRepository(db),
		Channel: NewChannelRepository(db),
	}
}
