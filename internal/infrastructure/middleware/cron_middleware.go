package middleware

import (
	"net/http"

	"stranger_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// CronHeader 定时调度器调用清扫接口时携带的请求头
const CronHeader = "X-Cron-Job"

// RequireCron 定时任务接口防护中间件
// 清扫接口（过期通道回收、统计重置等）只允许调度器触发，
// 外部请求不带调度头时直接拒绝，避免被恶意刷删
func RequireCron() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(CronHeader) == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "仅允许定时调度器访问",
			})
			return
		}
		c.Next()
	}
}
