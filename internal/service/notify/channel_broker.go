// channel_broker.go
// 单机模式下的消息代理实现
// 1. 维护在线客户端连接 (Channel 模式)
// 2. 消费信封并投递给本地连接
// 3. 管理客户端登录/登出事件
// 4. 不依赖外部消息队列，适合小规模或开发环境
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"stranger_chat_server/internal/gateway/websocket"
	"stranger_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// ChannelBroker 进程内消息代理
type ChannelBroker struct {
	// Clients 所有在线客户端的映射表，Key 为 handle 或通道 clientId
	// 使用 sync.Map 实现并发安全，无需手动加锁
	Clients sync.Map
	// Transmit 信封转发通道
	Transmit chan []byte
	// Login 客户端登录通道，当有新连接建立时写入此通道
	Login chan *websocket.Client
	// Logout 客户端登出通道，当连接断开时写入此通道
	Logout chan *websocket.Client

	relaySink RelaySink
}

// NewChannelBroker 创建单机消息代理实例
func NewChannelBroker() *ChannelBroker {
	return &ChannelBroker{
		// sync.Map 零值即可用，无需显式初始化
		Transmit: make(chan []byte, constants.CHANNEL_SIZE),
		Login:    make(chan *websocket.Client, constants.CHANNEL_SIZE),
		Logout:   make(chan *websocket.Client, constants.CHANNEL_SIZE),
	}
}

// SetRelaySink 注入入站文字的业务处理实现
func (b *ChannelBroker) SetRelaySink(sink RelaySink) {
	b.relaySink = sink
}

// Start 启动代理主循环
// 1. 信封消费循环 (Transmit): 接收信封 -> 反序列化 -> 按类型分发
// 2. 客户端管理循环 (Login/Logout): 维护 Clients 映射表
func (b *ChannelBroker) Start() {
	for {
		select {
		case client, ok := <-b.Login:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.Clients.Store(client.Id, client)
			zap.L().Debug("client online", zap.String("id", client.Id))

		case client, ok := <-b.Logout:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.Clients.Delete(client.Id)
			// 先从映射表摘除再关闭：投递和关闭在同一循环里串行，
			// 不会往已关闭的 SendBack 写入
			client.Close()
			zap.L().Info("client offline", zap.String("id", client.Id))

		case data, ok := <-b.Transmit:
			if !ok {
				return
			}
			b.dispatch(data)
		}
	}
}

// dispatch 按信封类型分发
func (b *ChannelBroker) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		zap.L().Error("bad envelope", zap.Error(err))
		return
	}

	switch env.Type {
	case envelopeNotify:
		b.deliver(env.Handle, []byte(env.Body))
	case envelopeRelay:
		if b.relaySink != nil {
			b.relaySink.HandleInbound(env.Handle, env.Body)
		}
	case envelopeBroadcast:
		b.broadcast([]byte(env.Body))
	default:
		zap.L().Warn("unknown envelope type", zap.String("type", env.Type))
	}
}

// deliver 投递给指定本地连接，不在线直接丢弃
func (b *ChannelBroker) deliver(id string, payload []byte) {
	value, ok := b.Clients.Load(id)
	if !ok {
		zap.L().Debug("client not connected, dropping", zap.String("id", id))
		return
	}
	client := value.(*websocket.Client)
	select {
	case client.SendBack <- payload:
	default:
		zap.L().Warn("client send buffer full, dropping", zap.String("id", id))
	}
}

// broadcast 推送给所有统计页通道
func (b *ChannelBroker) broadcast(payload []byte) {
	b.Clients.Range(func(_, value any) bool {
		client := value.(*websocket.Client)
		if client.Kind != websocket.KindStatsChannel {
			return true
		}
		select {
		case client.SendBack <- payload:
		default:
			zap.L().Warn("channel send buffer full, dropping", zap.String("id", client.Id))
		}
		return true
	})
}

// Publish 实现 Broker 接口：发布信封到 Channel
func (b *ChannelBroker) Publish(ctx context.Context, msg []byte) error {
	b.Transmit <- msg
	return nil
}

// RegisterClient 实现 Broker 接口：注册客户端
func (b *ChannelBroker) RegisterClient(client *websocket.Client) {
	b.Login <- client
}

// UnregisterClient 实现 Broker 接口：注销客户端
func (b *ChannelBroker) UnregisterClient(client *websocket.Client) {
	b.Logout <- client
}

// GetClient 获取客户端
func (b *ChannelBroker) GetClient(id string) *websocket.Client {
	value, ok := b.Clients.Load(id)
	if !ok {
		return nil
	}
	return value.(*websocket.Client)
}

// Close 关闭服务通道
func (b *ChannelBroker) Close() {
	close(b.Login)
	close(b.Logout)
	close(b.Transmit)
}

var _ Broker = (*ChannelBroker)(nil)
