package respond

// CreateChannelRespond 创建推送通道响应
type CreateChannelRespond struct {
	ClientId string `json:"client_id"` // 通道 ID，前端用它建立 WebSocket 连接
}
