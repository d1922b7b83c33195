package request

// MessageRequest 发送聊天消息请求
type MessageRequest struct {
	Handle string `json:"handle" binding:"required"` // 发送方用户标识
	Body   string `json:"body" binding:"required"`   // 消息内容
	Me     bool   `json:"me"`                        // 是否为动作消息（/me）
}
