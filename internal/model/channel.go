// Package model 定义数据库实体模型
// 本文件定义统计页实时推送通道的记录
package model

import "time"

// Channel 推送通道记录
// 浏览器打开统计页时分配一个通道 ID；通道有 2 小时存活期，
// 过期后由 cron 触发的清扫任务批量删除（断开事件并不总能收到）
//
// 不用 gorm.Model：通道记录会被硬删除后换新 ID 重建，不需要软删除
type Channel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// ClientId 通道标识，随机分配，WebSocket 连接以此注册
	ClientId string `gorm:"column:client_id;uniqueIndex;type:varchar(64);not null;comment:通道标识"`
}

// TableName 指定表名
func (Channel) TableName() string {
	return "channel"
}
