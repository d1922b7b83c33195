// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"net/http"

	"stranger_chat_server/internal/gateway/websocket"
	"stranger_chat_server/internal/service"
	"stranger_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 建连请求处理器
type WsHandler struct {
	chat    service.ChatCommandService
	channel service.ChannelService
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(chat service.ChatCommandService, channel service.ChannelService) *WsHandler {
	return &WsHandler{chat: chat, channel: channel}
}

// WsChatHandler 聊天连接（升级 HTTP 连接为 WebSocket）
// GET /ws/chat?handle=xxx
// 查询参数: handle - 用户地址
// 功能:
//   - 校验账号已注册，未注册的地址拒绝建连
//   - 升级为 WebSocket 并注册到在线客户端列表
//   - 建连即视为上线，断开即视为下线
func (h *WsHandler) WsChatHandler(c *gin.Context) {
	raw := c.Query("handle")
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{
			"code": errorx.CodeInvalidParam,
			"msg":  "handle获取失败",
		})
		return
	}

	acct, err := h.chat.GetAccount(c.Request.Context(), raw)
	if err != nil {
		zap.L().Warn("reject chat connection", zap.String("handle", raw), zap.Error(err))
		HandleError(c, err)
		return
	}
	// 连接以归一化后的地址注册
	websocket.NewChatClientInit(c, acct.Handle)
}

// WsChannelHandler 统计页推送通道连接
// GET /ws/channel?client_id=xxx
// 查询参数: client_id - 通道 ID，须先通过 POST /channel/create 分配
// 凭空捏造的通道 ID 在这里被挡下
func (h *WsHandler) WsChannelHandler(c *gin.Context) {
	clientId := c.Query("client_id")
	if clientId == "" {
		c.JSON(http.StatusOK, gin.H{
			"code": errorx.CodeInvalidParam,
			"msg":  "client_id获取失败",
		})
		return
	}

	ok, err := h.channel.Exists(c.Request.Context(), clientId)
	if err != nil {
		HandleError(c, err)
		return
	}
	if !ok {
		HandleError(c, errorx.New(errorx.CodeNotFound, "通道不存在或已过期"))
		return
	}
	websocket.NewChannelClientInit(c, clientId)
}
