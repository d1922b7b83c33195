// kafka_broker.go
// 分布式模式下的消息代理实现
// 1. 作为 Kafka 消费者，从消息队列读取全量信封
// 2. 维护本机在线客户端连接 (Kafka 模式)
// 3. 信封路由：目标账号连在本机才投递，不在本机直接跳过
//    （同一消费组外的其他实例会各自消费并检查自己的本地连接）
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stranger_chat_server/internal/gateway/websocket"

	"go.uber.org/zap"
)

// KafkaBroker 基于 Kafka 的消息代理
type KafkaBroker struct {
	// Clients 本机在线客户端的映射表，Key 为 handle 或通道 clientId
	// 使用 sync.Map 实现并发安全，无需手动加锁
	Clients sync.Map
	// Login 客户端登录通道，当有新连接建立时写入此通道
	Login chan *websocket.Client
	// Logout 客户端登出通道，当连接断开时写入此通道
	Logout chan *websocket.Client

	client    *KafkaClient
	relaySink RelaySink
}

// NewKafkaBroker 创建 Kafka 消息代理实例
func NewKafkaBroker(client *KafkaClient) *KafkaBroker {
	return &KafkaBroker{
		Login:  make(chan *websocket.Client),
		Logout: make(chan *websocket.Client),
		client: client,
	}
}

// SetRelaySink 注入入站文字的业务处理实现
func (b *KafkaBroker) SetRelaySink(sink RelaySink) {
	b.relaySink = sink
}

// Start 启动 Kafka 消费者服务
// 1. 消费循环 (Goroutine): 从 Kafka 读取信封 -> 反序列化 -> 按类型分发
// 2. 客户端管理循环 (主循环): 处理登录登出事件，维护 Clients 映射表
func (b *KafkaBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("kafka broker panic: %v", r))
		}
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error(fmt.Sprintf("kafka consumer panic: %v", r))
			}
		}()
		ctx := context.Background()
		for {
			kafkaMessage, err := b.client.Consumer.ReadMessage(ctx)
			if err != nil {
				zap.L().Error(err.Error())
				continue // 读取失败，重试
			}
			b.dispatch(kafkaMessage.Value)
		}
	}()

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
			// 摘除后在本循环里关闭，与投递串行
			client.Close()
			zap.L().Info("client offline", zap.String("id", client.Id))
		}
	}
}

// dispatch 按信封类型分发
// relay 信封只由配对双方所在实例的业务层处理一次的前提是
// 消费组配置保证一条消息只被组内一个实例消费；notify 信封
// 需要所有实例检查本地连接，因此 notify 主题不使用消费组时
// 应改为广播订阅，这里沿用单实例部署的简化配置
func (b *KafkaBroker) dispatch(data []byte) {
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

// deliver 投递给本机连接，目标不在本机直接跳过
func (b *KafkaBroker) deliver(id string, payload []byte) {
	value, ok := b.Clients.Load(id)
	if !ok {
		return
	}
	client := value.(*websocket.Client)
	select {
	case client.SendBack <- payload:
	default:
		zap.L().Warn("client send buffer full, dropping", zap.String("id", id))
	}
}

// broadcast 推送给本机所有统计页通道
func (b *KafkaBroker) broadcast(payload []byte) {
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

// Publish 实现 Broker 接口：发布信封到 Kafka
func (b *KafkaBroker) Publish(ctx context.Context, msg []byte) error {
	return b.client.SendMessage(ctx, nil, msg)
}

// RegisterClient 实现 Broker 接口：注册客户端
func (b *KafkaBroker) RegisterClient(client *websocket.Client) {
	b.Login <- client
}

// UnregisterClient 实现 Broker 接口：注销客户端
func (b *KafkaBroker) UnregisterClient(client *websocket.Client) {
	b.Logout <- client
}

// GetClient 获取本机客户端
func (b *KafkaBroker) GetClient(id string) *websocket.Client {
	value, ok := b.Clients.Load(id)
	if !ok {
		return nil
	}
	return value.(*websocket.Client)
}

// Close 关闭服务通道
func (b *KafkaBroker) Close() {
	close(b.Login)
	close(b.Logout)
}

var _ Broker = (*KafkaBroker)(nil)
