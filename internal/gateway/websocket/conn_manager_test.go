package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCloseIdempotent(t *testing.T) {
	client := &Client{
		Id:       "alice@example.com",
		Kind:     KindChat,
		SendBack: make(chan []byte, 1),
	}

	// 读协程退出和通道销毁可能同时触发关闭，重复关闭不能崩
	client.Close()
	client.Close()

	_, open := <-client.SendBack
	assert.False(t, open)
}

func TestClientLogoutWithoutManager(t *testing.T) {
	// 管理器未注入时登出是空操作
	require.NoError(t, ClientLogout("nobody@example.com"))
}
