package repository

import (
	"errors"

	"stranger_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// shardRepository ShardRepository 的 GORM 实现
// 每个写操作都是单行事务：要么只动一行分片，要么只动一行配置，
// 绝不跨行。聚合一致性由上层的缓存 CAS 和读时求和负责
type shardRepository struct {
	db *gorm.DB
}

// NewShardRepository 创建分片仓库实例
func NewShardRepository(db *gorm.DB) ShardRepository {
	return &shardRepository{db: db}
}

// GetOrCreateConfig 取或建分片数配置
// 并发创建靠唯一索引兜底，冲突后重查
func (r *shardRepository) GetOrCreateConfig(name string, defaultShards int) (*model.ShardConfig, error) {
	var cfg model.ShardConfig
	err := r.db.Where("name = ?", name).First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapDBErrorf(err, "查询分片配置失败 name=%s", name)
	}

	cfg = model.ShardConfig{Name: name, NumShards: defaultShards}
	createErr := r.db.Create(&cfg).Error
	if createErr == nil {
		return &cfg, nil
	}
	if err := r.db.Where("name = ?", name).First(&cfg).Error; err == nil {
		return &cfg, nil
	}
	return nil, wrapDBErrorf(createErr, "创建分片配置失败 name=%s", name)
}

// SetShardCount 单行事务内把分片数调到目标值
// 分片数只增不减：目标不高于当前值时不动，所以重试同一个目标值是幂等的。
// 配置不存在时按缺省值和目标值里较大的建出来
func (r *shardRepository) SetShardCount(name string, num int, defaultShards int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var cfg model.ShardConfig
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&cfg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if num < defaultShards {
				num = defaultShards
			}
			cfg = model.ShardConfig{Name: name, NumShards: num}
			return tx.Create(&cfg).Error
		}
		if err != nil {
			return err
		}
		if cfg.NumShards >= num {
			return nil
		}
		cfg.NumShards = num
		return tx.Save(&cfg).Error
	})
	return wrapDBErrorf(err, "设置分片数失败 name=%s", name)
}

// IncrementSlot 单行事务内把指定槽位分片加 delta
// 分片行不存在时先在事务内创建，保证首次写入不丢计数
func (r *shardRepository) IncrementSlot(name string, keyName string, delta int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var shard model.Shard
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key_name = ?", keyName).First(&shard).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			shard = model.Shard{KeyName: keyName, Name: name, Count: delta}
			return tx.Create(&shard).Error
		}
		if err != nil {
			return err
		}
		shard.Count += delta
		return tx.Save(&shard).Error
	})
	return wrapDBErrorf(err, "写入分片失败 keyName=%s", keyName)
}

// FindPage 按 key_name 升序分页读取分片
// afterKey 为空表示从头开始
func (r *shardRepository) FindPage(name string, afterKey string, limit int) ([]model.Shard, error) {
	query := r.db.Where("name = ?", name)
	if afterKey != "" {
		query = query.Where("key_name > ?", afterKey)
	}

	var shards []model.Shard
	err := query.Order("key_name ASC").Limit(limit).Find(&shards).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询分片失败 name=%s", name)
	}
	return shards, nil
}

// DeleteBatch 批量删除分片，一次最多 limit 行
// 返回 0 表示已删完，调用方据此决定是否继续
func (r *shardRepository) DeleteBatch(name string, limit int) (int64, error) {
	// MySQL 的 DELETE 不支持直接 LIMIT 子查询自身，分两步：先查 id 再删
	var ids []uint
	err := r.db.Model(&model.Shard{}).
		Where("name = ?", name).
		Order("id ASC").Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "查询待删除分片失败 name=%s", name)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.Where("id IN ?", ids).Delete(&model.Shard{})
	if result.Error != nil {
		return 0, wrapDBErrorf(result.Error, "删除分片失败 name=%s", name)
	}
	return result.RowsAffected, nil
}

// DeleteConfig 删除分片数配置
func (r *shardRepository) DeleteConfig(name string) error {
	err := r.db.Where("name = ?", name).Delete(&model.ShardConfig{}).Error
	return wrapDBErrorf(err, "删除分片配置失败 name=%s", name)
}
