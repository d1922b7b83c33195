// Package router 提供 HTTP 路由注册
// 本文件定义 cron 清扫任务相关的路由
package router

import (
	"stranger_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterCronRoutes 注册清扫任务相关路由
// 整组挂 RequireCron 中间件，只接受调度器带 X-Cron-Job 头发来的请求
func (rt *Router) RegisterCronRoutes(r *gin.Engine) {
	cronGroup := r.Group("/cron", middleware.RequireCron())
	{
		cronGroup.GET("/resetStats", rt.handlers.Cron.ResetStatsHandler)       // 清零消息计数并清空缓存
		cronGroup.GET("/flushCache", rt.handlers.Cron.FlushCacheHandler)       // 清空缓存
		cronGroup.GET("/flushChannels", rt.handlers.Cron.FlushChannelsHandler) // 清扫过期推送通道
		cronGroup.GET("/sendPresence", rt.handlers.Cron.SendPresenceHandler)   // 向活跃用户推送状态行
	}
}
