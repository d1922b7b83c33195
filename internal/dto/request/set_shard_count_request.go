package request

// SetShardCountRequest 调整计数器分片数请求
type SetShardCountRequest struct {
	Name string `json:"name" binding:"required"`      // 计数器名
	Num  int    `json:"num" binding:"required,min=1"` // 目标分片数，只增不减
}
