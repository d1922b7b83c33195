package request

// DestroyChannelRequest 销毁推送通道请求
type DestroyChannelRequest struct {
	ClientId string `json:"client_id" binding:"required"` // 通道 ID
}
