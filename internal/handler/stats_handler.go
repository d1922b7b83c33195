// Package handler 提供 HTTP 请求处理器
// 本文件处理统计页相关的 API 请求
package handler

import (
	"stranger_chat_server/internal/dto/respond"
	"stranger_chat_server/internal/service"
	"stranger_chat_server/internal/service/presence"
	"stranger_chat_server/pkg/constants"

	"github.com/gin-gonic/gin"
)

// StatsHandler 统计请求处理器
type StatsHandler struct {
	stats service.StatsService
}

// NewStatsHandler 创建统计处理器实例
func NewStatsHandler(stats service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStatsHandler 查询站点统计
// GET /stats
// 响应: respond.StatsRespond
func (h *StatsHandler) GetStatsHandler(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	HandleSuccess(c, respond.StatsRespond{
		NumUsers:       stats[constants.NumUsersKey],
		NumActiveUsers: stats[constants.NumActiveUsersKey],
		NumMessages:    stats[constants.NumMessagesKey],
		Status:         presence.StatusLine(stats),
	})
}
