// Package router 提供 HTTP 路由注册
// 本文件定义管理端相关的路由
package router

import (
	"stranger_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理端相关路由
// 登录接口开放，其余接口需要携带有效的 Access Token
func (rt *Router) RegisterAdminRoutes(r *gin.Engine) {
	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/login", rt.handlers.Admin.LoginHandler) // 管理员登录

		authed := adminGroup.Group("", middleware.JWTAuth())
		{
			authed.POST("/setShardCount", rt.handlers.Admin.SetShardCountHandler) // 调整计数器分片数
			authed.POST("/resetCounter", rt.handlers.Admin.ResetCounterHandler)     // 计数器清零
		}
	}
}
