// Package router 提供 HTTP 路由注册
// 本文件定义账号注册和聊天命令相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAccountRoutes 注册账号相关路由
func (rt *Router) RegisterAccountRoutes(r *gin.Engine) {
	accountGroup := r.Group("/account")
	{
		accountGroup.POST("/signup", rt.handlers.Account.SignUpHandler) // 注册账号（幂等）
	}
}

// RegisterChatRoutes 注册聊天命令相关路由
// 每个命令对应一次会话状态转换，与 WebSocket 入站斜杠命令共用同一套逻辑
func (rt *Router) RegisterChatRoutes(r *gin.Engine) {
	chatGroup := r.Group("/chat")
	{
		chatGroup.POST("/start", rt.handlers.Chat.StartHandler)             // 开启配对
		chatGroup.POST("/stop", rt.handlers.Chat.StopHandler)               // 关闭配对
		chatGroup.POST("/next", rt.handlers.Chat.NextHandler)               // 换一个配对对象
		chatGroup.POST("/help", rt.handlers.Chat.HelpHandler)               // 帮助文案
		chatGroup.POST("/who", rt.handlers.Chat.WhoHandler)                 // 当前配对状态
		chatGroup.POST("/available", rt.handlers.Chat.AvailableHandler)     // 标记上线
		chatGroup.POST("/unavailable", rt.handlers.Chat.UnavailableHandler) // 标记下线
		chatGroup.POST("/message", rt.handlers.Chat.MessageHandler)         // 转发聊天消息
	}
}
