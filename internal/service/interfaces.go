// Package service 定义业务层接口
// 本文件定义 Handler 层依赖的 Service 接口
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"context"

	"stranger_chat_server/internal/model"
)

// ChatCommandService 聊天命令业务接口
// 五种状态转换加注册和帮助，HTTP 接口和 WebSocket 入站共用
type ChatCommandService interface {
	// SignUp 注册账号，幂等，返回是否新建
	SignUp(ctx context.Context, raw string) (*model.Account, bool, error)
	// GetAccount 取已注册账号，未注册返回 CodeNotFound
	GetAccount(ctx context.Context, raw string) (*model.Account, error)
	// Start 开启配对
	Start(ctx context.Context, handle string) error
	// Stop 关闭配对
	Stop(ctx context.Context, handle string) error
	// Next 换一个配对对象
	Next(ctx context.Context, handle string) error
	// Help 发送帮助文案
	Help(ctx context.Context, handle string) error
	// Who 发送当前配对状态文案
	Who(ctx context.Context, handle string) error
	// SetAvailable 上下线切换
	SetAvailable(ctx context.Context, handle string, available bool) error
	// Relay 转发聊天文字，me 为 true 时按动作消息处理
	Relay(ctx context.Context, handle string, body string, me bool) error
}

// StatsService 统计业务接口
type StatsService interface {
	// GetStats 返回全部统计数字
	GetStats(ctx context.Context) (map[string]int64, error)
	// SendPresenceToAll 向所有活跃用户推送状态行
	SendPresenceToAll(ctx context.Context)
	// Broadcast 向统计页通道推送统计和事件
	Broadcast(ctx context.Context, withStats bool, event string)
}

// ChannelService 推送通道业务接口
type ChannelService interface {
	// Create 分配一个新通道
	Create(ctx context.Context) (string, error)
	// Exists 通道记录是否有效
	Exists(ctx context.Context, clientId string) (bool, error)
	// Destroy 销毁通道
	Destroy(ctx context.Context, clientId string) error
	// FlushExpired 清扫过期通道记录
	FlushExpired(ctx context.Context)
}

// AdminService 管理端业务接口
type AdminService interface {
	// Login 管理员登录，返回 Access Token
	Login(username, password string) (string, error)
	// SetShardCount 把指定计数器的分片数调到目标值，只增不减，幂等
	SetShardCount(name string, num int) error
	// ResetCounter 把指定计数器清零
	ResetCounter(ctx context.Context, name string) error
}
