package request

// SignUpRequest 注册请求
type SignUpRequest struct {
	Handle string `json:"handle" binding:"required"` // 用户标识，形如邮箱地址
}
