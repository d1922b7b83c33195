// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"stranger_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器，持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器实例
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
// 按模块分别注册各个路由组
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.RegisterAccountRoutes(r)   // 账号注册路由
	rt.RegisterChatRoutes(r)      // 聊天命令路由
	rt.RegisterStatsRoutes(r)     // 统计页路由
	rt.RegisterChannelRoutes(r)   // 推送通道路由
	rt.RegisterCronRoutes(r)      // 清扫任务路由（X-Cron-Job 头把关）
	rt.RegisterAdminRoutes(r)     // 管理端路由（JWT 认证）
	rt.RegisterWebSocketRoutes(r) // WebSocket 路由
}
