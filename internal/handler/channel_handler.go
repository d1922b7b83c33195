// Package handler 提供 HTTP 请求处理器
// 本文件处理统计页推送通道相关的 API 请求
package handler

import (
	"stranger_chat_server/internal/dto/request"
	"stranger_chat_server/internal/dto/respond"
	"stranger_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// ChannelHandler 推送通道请求处理器
type ChannelHandler struct {
	channel service.ChannelService
}

// NewChannelHandler 创建推送通道处理器实例
func NewChannelHandler(channel service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channel: channel}
}

// CreateChannelHandler 创建推送通道
// POST /channel/create
// 响应: respond.CreateChannelRespond
// 前端拿到通道 ID 后再发起 GET /ws/channel 建立 WebSocket 连接
func (h *ChannelHandler) CreateChannelHandler(c *gin.Context) {
	clientId, err := h.channel.Create(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.CreateChannelRespond{ClientId: clientId})
}

// DestroyChannelHandler 销毁推送通道
// POST /channel/destroy
// 请求体: request.DestroyChannelRequest
// 浏览器关闭统计页时调用；断开事件可能重复送达，销毁是幂等的
func (h *ChannelHandler) DestroyChannelHandler(c *gin.Context) {
	var req request.DestroyChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.channel.Destroy(c.Request.Context(), req.ClientId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
