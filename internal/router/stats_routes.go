// Package router 提供 HTTP 路由注册
// 本文件定义统计页和推送通道相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterStatsRoutes 注册统计相关路由
func (rt *Router) RegisterStatsRoutes(r *gin.Engine) {
	r.GET("/stats", rt.handlers.Stats.GetStatsHandler) // 站点统计 JSON
}

// RegisterChannelRoutes 注册推送通道相关路由
// 浏览器打开统计页时先创建通道，再用通道 ID 建立 WebSocket
func (rt *Router) RegisterChannelRoutes(r *gin.Engine) {
	channelGroup := r.Group("/channel")
	{
		channelGroup.POST("/create", rt.handlers.Channel.CreateChannelHandler)   // 分配通道
		channelGroup.POST("/destroy", rt.handlers.Channel.DestroyChannelHandler) // 销毁通道
	}
}
