// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"stranger_chat_server/internal/dao/mysql/repository"
	myredis "stranger_chat_server/internal/dao/redis"
	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/internal/service/account"
	"stranger_chat_server/internal/service/admin"
	"stranger_chat_server/internal/service/channel"
	"stranger_chat_server/internal/service/counter"
	"stranger_chat_server/internal/service/dispatch"
	"stranger_chat_server/internal/service/matching"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/internal/service/presence"
	"stranger_chat_server/internal/service/stranger"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	Chat    ChatCommandService // 聊天命令 Service
	Stats   StatsService       // 统计 Service
	Channel ChannelService     // 推送通道 Service
	Admin   AdminService       // 管理端 Service

	// Dispatcher 编排器本体，main 中注入给消息代理和 websocket 网关
	Dispatcher *dispatch.Dispatcher
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 接收 Repository 聚合、缓存服务、任务队列和通知服务器
//  2. 自底向上创建各个 Service，逐层注入依赖
//  3. 返回 Services 聚合
func NewServices(
	repos *repository.Repositories,
	cache myredis.AsyncCacheService,
	queue *task.Queue,
	notifier notify.Notifier,
	connectivity stranger.ConnectivityChecker,
) *Services {
	counterSvc := counter.NewCounterService(repos.Shard, cache, queue)
	accountSvc := account.NewAccountService(repos.Account)
	matcherSvc := matching.NewMatchingService(repos.Account)
	strangerSvc := stranger.NewStrangerService(repos.Account, matcherSvc, connectivity)
	presenceSvc := presence.NewPresenceService(repos.Account, cache, counterSvc, notifier, queue)
	channelSvc := channel.NewChannelService(repos.Channel, queue)
	adminSvc := admin.NewAdminService(counterSvc)
	dispatcher := dispatch.NewDispatcher(accountSvc, strangerSvc, presenceSvc, counterSvc, notifier)

	return &Services{
		Chat:       dispatcher,
		Stats:      presenceSvc,
		Channel:    channelSvc,
		Admin:      adminSvc,
		Dispatcher: dispatcher,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Chat.Start() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository 和通知服务器初始化之后
func InitServices(
	repos *repository.Repositories,
	cache myredis.AsyncCacheService,
	queue *task.Queue,
	notifier notify.Notifier,
	connectivity stranger.ConnectivityChecker,
) {
	Svc = NewServices(repos, cache, queue, notifier, connectivity)
}
