package request

// ChatCommandRequest 聊天状态命令请求
// start / stop / next / available / unavailable 共用
type ChatCommandRequest struct {
	Handle string `json:"handle" binding:"required"` // 用户标识
}
