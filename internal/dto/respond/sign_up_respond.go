package respond

// SignUpRespond 注册响应
type SignUpRespond struct {
	Handle  string `json:"handle"`  // 规范化后的用户标识
	Created bool   `json:"created"` // 是否为新建账号
}
