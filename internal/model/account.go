// Package model 定义数据库实体模型
// 本文件定义陌生人账号模型，是配对状态机的唯一持久化载体
package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Account 陌生人账号模型
// 对应数据库 account 表
//
// PartnerHandle 是弱引用（只存对方 handle，不建外键）。两侧的配对指针
// 分两次独立写入，没有跨行事务，所以 A 指向 B 时 B 未必指向 A；
// 读取方必须先做互指校验再把配对当作有效（见 stranger 服务的可达性检查）。
type Account struct {
	gorm.Model

	// Handle 账号唯一标识，已归一化（小写、去资源后缀），作为业务主键
	Handle string `gorm:"column:handle;uniqueIndex;type:varchar(80);not null;comment:归一化身份标识"`

	// Started 是否已开启配对（长期意愿，对应 /start、/stop）
	Started bool `gorm:"column:started;index:idx_waiting;not null;comment:是否开启配对"`

	// Available 是否在线可配对（瞬时状态，随客户端上下线切换）
	Available bool `gorm:"column:available;index:idx_waiting;not null;comment:是否在线可配对"`

	// PartnerHandle 当前配对对象的 handle，空串表示未配对
	PartnerHandle string `gorm:"column:partner_handle;index;type:varchar(80);not null;default:'';comment:当前配对对象"`

	// RecentPartners 近期配对对象列表（JSON 数组，有界），用于 next 时避免立刻重配
	RecentPartners string `gorm:"column:recent_partners;type:varchar(512);not null;default:'';comment:近期配对对象"`

	// LastActivity 每次持久化刷新，等待池按此字段升序排列（最久等待者优先）
	LastActivity time.Time `gorm:"column:last_activity;index:idx_waiting;autoUpdateTime;comment:最近活跃时间"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "account"
}

// IsActive 是否算作活跃用户（已开启且在线）
func (a *Account) IsActive() bool {
	return a.Started && a.Available
}

// HasPartner 是否持有配对指针（不保证互指）
func (a *Account) HasPartner() bool {
	return a.PartnerHandle != ""
}

// Equal 按 handle 判等
func (a *Account) Equal(other *Account) bool {
	return other != nil && a.Handle == other.Handle
}

// RecentPartnerList 反序列化近期配对对象列表，脏数据按空列表处理
func (a *Account) RecentPartnerList() []string {
	if a.RecentPartners == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(a.RecentPartners), &list); err != nil {
		return nil
	}
	return list
}

// PushRecentPartner 记录一个近期配对对象，去重并截断到 cap 个
// 最新的排在最前
func (a *Account) PushRecentPartner(handle string, cap int) {
	if handle == "" || cap <= 0 {
		return
	}
	list := a.RecentPartnerList()
	next := make([]string, 0, cap)
	next = append(next, handle)
	for _, h := range list {
		if h != handle && len(next) < cap {
			next = append(next, h)
		}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return
	}
	a.RecentPartners = string(data)
}
