package respond

// AdminLoginRespond 管理员登录响应
type AdminLoginRespond struct {
	AccessToken string `json:"access_token"` // 管理端后续请求携带的 JWT
}
