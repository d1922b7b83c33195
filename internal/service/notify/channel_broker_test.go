package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stranger_chat_server/internal/gateway/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 构造一个不带真实连接的客户端，只用 SendBack 验证投递
func newTestClient(id string, kind websocket.ClientKind) *websocket.Client {
	return &websocket.Client{
		Id:       id,
		Kind:     kind,
		SendBack: make(chan []byte, 10),
	}
}

func mustMarshal(t *testing.T, env envelope) []byte {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return data
}

func waitForPayload(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

type recordingSink struct {
	handles chan string
	bodies  chan string
}

func (r *recordingSink) HandleInbound(handle string, body string) {
	r.handles <- handle
	r.bodies <- body
}

func TestChannelBrokerDeliversNotify(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	alice := newTestClient("alice@example.com", websocket.KindChat)
	broker.RegisterClient(alice)
	require.Eventually(t, func() bool {
		return broker.GetClient("alice@example.com") != nil
	}, time.Second, 10*time.Millisecond)

	env := envelope{Type: envelopeNotify, Handle: "alice@example.com", Kind: KindStopped, Body: "bye"}
	require.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))

	assert.Equal(t, "bye", string(waitForPayload(t, alice.SendBack)))
}

func TestChannelBrokerDropsOffline(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	env := envelope{Type: envelopeNotify, Handle: "ghost@example.com", Body: "hello"}
	// 不在线的目标直接丢弃，不报错
	assert.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))
}

func TestChannelBrokerBroadcastOnlyStatsChannels(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	chat := newTestClient("alice@example.com", websocket.KindChat)
	stats := newTestClient("channel-1", websocket.KindStatsChannel)
	broker.RegisterClient(chat)
	broker.RegisterClient(stats)
	require.Eventually(t, func() bool {
		return broker.GetClient("channel-1") != nil && broker.GetClient("alice@example.com") != nil
	}, time.Second, 10*time.Millisecond)

	env := envelope{Type: envelopeBroadcast, Body: `{"num_users":3}`}
	require.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))

	assert.Equal(t, `{"num_users":3}`, string(waitForPayload(t, stats.SendBack)))
	// 聊天客户端不收统计广播
	select {
	case data := <-chat.SendBack:
		t.Fatalf("chat client should not receive broadcast, got %q", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannelBrokerRelayGoesToSink(t *testing.T) {
	broker := NewChannelBroker()
	sink := &recordingSink{handles: make(chan string, 1), bodies: make(chan string, 1)}
	broker.SetRelaySink(sink)
	go broker.Start()
	defer broker.Close()

	env := envelope{Type: envelopeRelay, Handle: "alice@example.com", Body: "/next"}
	require.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))

	select {
	case h := <-sink.handles:
		assert.Equal(t, "alice@example.com", h)
		assert.Equal(t, "/next", <-sink.bodies)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for relay sink")
	}
}

func TestChannelBrokerLogout(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	alice := newTestClient("alice@example.com", websocket.KindChat)
	broker.RegisterClient(alice)

	// 等注册生效
	require.Eventually(t, func() bool {
		return broker.GetClient("alice@example.com") != nil
	}, time.Second, 10*time.Millisecond)

	broker.UnregisterClient(alice)
	assert.Eventually(t, func() bool {
		return broker.GetClient("alice@example.com") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestChannelBrokerDuplicateLogout(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	alice := newTestClient("alice@example.com", websocket.KindChat)
	broker.RegisterClient(alice)
	require.Eventually(t, func() bool {
		return broker.GetClient("alice@example.com") != nil
	}, time.Second, 10*time.Millisecond)

	// 读协程断开和通道销毁两路都会投递登出事件，重复注销必须安全
	broker.UnregisterClient(alice)
	broker.UnregisterClient(alice)
	require.Eventually(t, func() bool {
		return broker.GetClient("alice@example.com") == nil
	}, time.Second, 10*time.Millisecond)

	// 注销后 SendBack 已关闭，写协程随之退出
	_, open := <-alice.SendBack
	assert.False(t, open)

	// 注销后送达的通知按离线丢弃，不能写已关闭的通道
	env := envelope{Type: envelopeNotify, Handle: "alice@example.com", Body: "late"}
	require.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))

	// 主循环仍然活着：新客户端照常收消息
	bob := newTestClient("bob@example.com", websocket.KindChat)
	broker.RegisterClient(bob)
	require.Eventually(t, func() bool {
		return broker.GetClient("bob@example.com") != nil
	}, time.Second, 10*time.Millisecond)
	env = envelope{Type: envelopeNotify, Handle: "bob@example.com", Body: "hi"}
	require.NoError(t, broker.Publish(context.Background(), mustMarshal(t, env)))
	assert.Equal(t, "hi", string(waitForPayload(t, bob.SendBack)))
}
