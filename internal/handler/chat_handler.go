// Package handler 提供 HTTP 请求处理器
// 本文件处理聊天命令相关的 API 请求
// 每个命令只做参数绑定和地址归一化，状态转换和副作用全在 Service 层
package handler

import (
	"stranger_chat_server/internal/dto/request"
	"stranger_chat_server/internal/service"
	"stranger_chat_server/internal/service/account"

	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天命令请求处理器
type ChatHandler struct {
	chat service.ChatCommandService
}

// NewChatHandler 创建聊天命令处理器实例
func NewChatHandler(chat service.ChatCommandService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// bindCommand 绑定命令请求并归一化地址
func bindCommand(c *gin.Context) (string, bool) {
	var req request.ChatCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return "", false
	}
	return account.NormalizeHandle(req.Handle), true
}

// StartHandler 开启配对
// POST /chat/start
func (h *ChatHandler) StartHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.Start(c.Request.Context(), handle); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// StopHandler 关闭配对
// POST /chat/stop
func (h *ChatHandler) StopHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.Stop(c.Request.Context(), handle); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// NextHandler 换一个配对对象
// POST /chat/next
func (h *ChatHandler) NextHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.Next(c.Request.Context(), handle); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// HelpHandler 发送帮助文案
// POST /chat/help
func (h *ChatHandler) HelpHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.Help(c.Request.Context(), handle); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// WhoHandler 发送当前配对状态文案
// POST /chat/who
func (h *ChatHandler) WhoHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.Who(c.Request.Context(), handle); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AvailableHandler 标记用户上线
// POST /chat/available
func (h *ChatHandler) AvailableHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.SetAvailable(c.Request.Context(), handle, true); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UnavailableHandler 标记用户下线
// POST /chat/unavailable
func (h *ChatHandler) UnavailableHandler(c *gin.Context) {
	handle, ok := bindCommand(c)
	if !ok {
		return
	}
	if err := h.chat.SetAvailable(c.Request.Context(), handle, false); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MessageHandler 转发聊天消息
// POST /chat/message
// 请求体: request.MessageRequest
// me 为 true 时按动作消息转发（对端看到 "* Your partner ..." 格式）
func (h *ChatHandler) MessageHandler(c *gin.Context) {
	var req request.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	handle := account.NormalizeHandle(req.Handle)
	if err := h.chat.Relay(c.Request.Context(), handle, req.Body, req.Me); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
