package constants

import "time"

const (
	CHANNEL_SIZE  = 100 // 通道大小
	REDIS_TIMEOUT = 1   // redis timeout (分钟)

	DEFAULT_NUM_SHARDS = 20  // 计数器默认分片数
	NUM_RETRIES        = 3   // CAS / ID 分配重试预算
	DELETE_BATCH_SIZE  = 500 // 后端存储批量删除上限
	QUERY_PAGE_SIZE    = 100 // 游标分页大小

	RECENT_PARTNER_CAP = 3 // 近期配对对象保留个数

	CHANNEL_TTL = 2 * time.Hour // 推送通道存活时间，超时由清扫任务删除
)

// 统计计数器的逻辑名，同时作为缓存聚合值的键
const (
	NumUsersKey       = "num_users"
	NumActiveUsersKey = "num_active_users"
	NumMessagesKey    = "num_messages"
	ActiveUsersKey    = "active_users"
)

// 广播到统计页推送通道的事件名
const (
	SignUpEvent      = "sign_up_event"
	HelpEvent        = "help_event"
	WhoEvent         = "who_event"
	StartEvent       = "start_event"
	NextEvent        = "next_event"
	StopEvent        = "stop_event"
	MessageEvent     = "text_message_event"
	MeEvent          = "me_event"
	AvailableEvent   = "available_event"
	UnavailableEvent = "unavailable_event"
)
