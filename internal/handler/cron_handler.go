// Package handler 提供 HTTP 请求处理器
// 本文件处理 cron 触发的清扫任务请求
// 这些接口由 RequireCron 中间件把关，只接受带 X-Cron-Job 头的请求；
// 任务本身可重入，中断后重跑不会出错
package handler

import (
	"stranger_chat_server/internal/dao/redis"
	"stranger_chat_server/internal/service"
	"stranger_chat_server/pkg/constants"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CronHandler 清扫任务请求处理器
type CronHandler struct {
	stats   service.StatsService
	channel service.ChannelService
	admin   service.AdminService
	cache   redis.CacheService
}

// NewCronHandler 创建清扫任务处理器实例
func NewCronHandler(
	stats service.StatsService,
	channel service.ChannelService,
	admin service.AdminService,
	cache redis.CacheService,
) *CronHandler {
	return &CronHandler{
		stats:   stats,
		channel: channel,
		admin:   admin,
		cache:   cache,
	}
}

// ResetStatsHandler 周期性清零消息计数并清空缓存
// GET /cron/resetStats
func (h *CronHandler) ResetStatsHandler(c *gin.Context) {
	zap.L().Info("cron resetting message counter")
	if err := h.admin.ResetCounter(c.Request.Context(), constants.NumMessagesKey); err != nil {
		HandleError(c, err)
		return
	}

	zap.L().Info("cron flushing cache")
	if err := h.cache.DeleteByPattern(c.Request.Context(), "*"); err != nil {
		zap.L().Error("flush cache failed", zap.Error(err))
	}
	HandleSuccess(c, nil)
}

// FlushCacheHandler 清空缓存
// GET /cron/flushCache
// 缓存里只有可重算的数据，清空后会按需从数据库重建
func (h *CronHandler) FlushCacheHandler(c *gin.Context) {
	zap.L().Info("cron flushing cache")
	if err := h.cache.DeleteByPattern(c.Request.Context(), "*"); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// FlushChannelsHandler 清扫过期推送通道
// GET /cron/flushChannels
// 通道断开事件不可靠，过期记录靠这里兜底删除
func (h *CronHandler) FlushChannelsHandler(c *gin.Context) {
	zap.L().Info("cron flushing stale channels")
	h.channel.FlushExpired(c.Request.Context())
	HandleSuccess(c, nil)
}

// SendPresenceHandler 向所有活跃用户推送状态行
// GET /cron/sendPresence
func (h *CronHandler) SendPresenceHandler(c *gin.Context) {
	zap.L().Info("cron sending presence to all active users")
	h.stats.SendPresenceToAll(c.Request.Context())
	HandleSuccess(c, nil)
}
