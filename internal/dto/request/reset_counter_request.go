package request

// ResetCounterRequest 计数器清零请求
type ResetCounterRequest struct {
	Name string `json:"name" binding:"required"` // 计数器名
}
