// Package handler 提供 HTTP 请求处理器
// 本文件处理管理端相关的 API 请求
// 除登录外的接口都挂在 JWTAuth 中间件之后
package handler

import (
	"stranger_chat_server/internal/dto/request"
	"stranger_chat_server/internal/dto/respond"
	"stranger_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理端请求处理器
type AdminHandler struct {
	admin service.AdminService
}

// NewAdminHandler 创建管理端处理器实例
func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// LoginHandler 管理员登录
// POST /admin/login
// 请求体: request.AdminLoginRequest
// 响应: respond.AdminLoginRespond
func (h *AdminHandler) LoginHandler(c *gin.Context) {
	var req request.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	token, err := h.admin.Login(req.Username, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.AdminLoginRespond{AccessToken: token})
}

// SetShardCountHandler 把指定计数器的分片数调到目标值
// POST /admin/setShardCount
// 写入压力大时调大分片数降低单行争用，只增不减，重复提交幂等
func (h *AdminHandler) SetShardCountHandler(c *gin.Context) {
	var req request.SetShardCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.admin.SetShardCount(req.Name, req.Num); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ResetCounterHandler 把指定计数器清零
// POST /admin/resetCounter
func (h *AdminHandler) ResetCounterHandler(c *gin.Context) {
	var req request.ResetCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.admin.ResetCounter(c.Request.Context(), req.Name); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
