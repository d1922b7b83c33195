package request

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"` // 管理员用户名
	Password string `json:"password" binding:"required"` // 管理员密码
}
