package respond

// StatsRespond 站点统计响应
type StatsRespond struct {
	NumUsers       int64  `json:"num_users"`        // 注册用户总数
	NumActiveUsers int64  `json:"num_active_users"` // 当前可聊天用户数
	NumMessages    int64  `json:"num_messages"`     // 已转发消息总数
	Status         string `json:"status"`           // 拼好的状态行文字
}
