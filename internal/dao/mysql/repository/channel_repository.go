package repository

import (
	"time"

	"stranger_chat_server/internal/model"

	"gorm.io/gorm"
)

// channelRepository ChannelRepository 的 GORM 实现
type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository 创建通道仓库实例
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

// Create 写入通道记录
// clientId 冲突时原样上抛，调用方换一个 ID 重试
func (r *channelRepository) Create(clientId string) error {
	ch := model.Channel{ClientId: clientId}
	if err := r.db.Create(&ch).Error; err != nil {
		return wrapDBErrorf(err, "创建通道记录失败 clientId=%s", clientId)
	}
	return nil
}

// Exists 通道记录是否存在
func (r *channelRepository) Exists(clientId string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Channel{}).
		Where("client_id = ?", clientId).Count(&count).Error
	if err != nil {
		return false, wrapDBErrorf(err, "查询通道记录失败 clientId=%s", clientId)
	}
	return count > 0, nil
}

// DeleteByClientId 删除通道记录，不存在视为成功（断开事件可能重复送达）
func (r *channelRepository) DeleteByClientId(clientId string) error {
	err := r.db.Where("client_id = ?", clientId).Delete(&model.Channel{}).Error
	return wrapDBErrorf(err, "删除通道记录失败 clientId=%s", clientId)
}

// FindPage 按 id 升序分页读取通道记录
func (r *channelRepository) FindPage(afterId uint, limit int) ([]model.Channel, error) {
	var channels []model.Channel
	err := r.db.Where("id > ?", afterId).
		Order("id ASC").Limit(limit).
		Find(&channels).Error
	if err != nil {
		return nil, wrapDBError(err, "查询通道记录失败")
	}
	return channels, nil
}

// DeleteExpiredBatch 批量删除过期通道记录
func (r *channelRepository) DeleteExpiredBatch(before time.Time, limit int) (int64, error) {
	var ids []uint
	err := r.db.Model(&model.Channel{}).
		Where("created_at < ?", before).
		Order("id ASC").Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, wrapDBError(err, "查询过期通道失败")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.Where("id IN ?", ids).Delete(&model.Channel{})
	if result.Error != nil {
		return 0, wrapDBError(result.Error, "删除过期通道失败")
	}
	return result.RowsAffected, nil
}
