package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

// GetRandomInt 生成 [0, max) 范围的安全随机数（用于计数器分片槽位选取）
func GetRandomInt(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return int(time.Now().UnixNano() % int64(max)) // fallback
	}
	return int(n.Int64())
}

