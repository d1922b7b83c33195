// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	wsGroup := r.Group("/ws")
	{
		// 聊天连接，请求示例: ws://host:port/ws/chat?handle=alice@example.com
		wsGroup.GET("/chat", rt.handlers.Ws.WsChatHandler)
		// 统计页推送通道连接，client_id 须先通过 POST /channel/create 分配
		wsGroup.GET("/channel", rt.handlers.Ws.WsChannelHandler)
	}
}
