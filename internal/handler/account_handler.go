// Package handler 提供 HTTP 请求处理器
// 本文件处理账号注册相关的 API 请求
package handler

import (
	"stranger_chat_server/internal/dto/request"
	"stranger_chat_server/internal/dto/respond"
	"stranger_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler 账号相关请求处理器
type AccountHandler struct {
	chat service.ChatCommandService
}

// NewAccountHandler 创建账号处理器实例
func NewAccountHandler(chat service.ChatCommandService) *AccountHandler {
	return &AccountHandler{chat: chat}
}

// SignUpHandler 注册账号
// POST /account/signup
// 请求体: request.SignUpRequest
// 响应: respond.SignUpRespond
//
// 注册是幂等的：重复提交同一地址返回已有账号，created 为 false
func (h *AccountHandler) SignUpHandler(c *gin.Context) {
	var req request.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	acct, created, err := h.chat.SignUp(c.Request.Context(), req.Handle)
	if err != nil {
		HandleError(c, err)
		return
	}

	HandleSuccess(c, respond.SignUpRespond{
		Handle:  acct.Handle,
		Created: created,
	})
}
