// Package model 定义数据库实体模型
// 本文件定义分片计数器的两张表：分片本体和分片数配置
package model

import "time"

// Shard 计数器分片
// 一个逻辑计数器拆成 N 行，写入时随机落在一行上以降低行锁竞争，
// 读取时对全部分片求和
//
// 不用 gorm.Model：reset 会删除分片行，软删除残留会和唯一索引冲突
type Shard struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// KeyName 分片主键，格式为 "<计数器名><槽位下标>"，如 "num_messages7"
	KeyName string `gorm:"column:key_name;uniqueIndex;type:varchar(80);not null;comment:分片键"`

	// Name 所属逻辑计数器名
	Name string `gorm:"column:name;index;type:varchar(64);not null;comment:计数器名"`

	// Count 该分片累计的部分计数
	Count int64 `gorm:"column:count;not null;default:0;comment:分片计数"`
}

// TableName 指定表名
func (Shard) TableName() string {
	return "shard"
}

// ShardConfig 每个逻辑计数器的分片数配置
// 分片数只增不减：减少会导致已有分片不再被读到，计数凭空蒸发
type ShardConfig struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Name 逻辑计数器名
	Name string `gorm:"column:name;uniqueIndex;type:varchar(64);not null;comment:计数器名"`

	// NumShards 分片数
	NumShards int `gorm:"column:num_shards;not null;comment:分片数"`
}

// TableName 指定表名
func (ShardConfig) TableName() string {
	return "shard_config"
}
