// server.go
// 通知服务器聚合结构和依赖注入
// 封装 Broker、KafkaClient 等组件，提供统一的生命周期管理
package notify

import (
	"context"
	"encoding/json"

	"stranger_chat_server/internal/gateway/websocket"
	"stranger_chat_server/pkg/errorx"
	"stranger_chat_server/pkg/util/snowflake"
)

// NotifyServer 通知服务器聚合结构
// 根据配置选择 ChannelBroker 或 KafkaBroker，
// 同时充当 websocket 包需要的 ClientManager 和 InboundPublisher
type NotifyServer struct {
	// Broker 消息代理，实现 Broker 接口
	Broker Broker

	// KafkaClient Kafka 客户端（仅 Kafka 模式使用）
	KafkaClient *KafkaClient

	// mode 运行模式: "channel" 或 "kafka"
	mode string
}

// NewNotifyServer 创建通知服务器实例
// mode 为 "kafka" 时走消息队列，其余值一律按单机 Channel 模式处理
func NewNotifyServer(mode string) *NotifyServer {
	ns := &NotifyServer{mode: mode}

	if mode == "kafka" {
		ns.KafkaClient = NewKafkaClient()
		ns.Broker = NewKafkaBroker(ns.KafkaClient)
	} else {
		ns.Broker = NewChannelBroker()
	}

	return ns
}

// InitKafka 初始化 Kafka 连接（仅 Kafka 模式需要调用）
func (ns *NotifyServer) InitKafka() {
	if ns.KafkaClient != nil {
		ns.KafkaClient.KafkaInit()
	}
}

// SetRelaySink 注入入站文字的业务处理实现
func (ns *NotifyServer) SetRelaySink(sink RelaySink) {
	ns.Broker.SetRelaySink(sink)
}

// Start 启动通知服务器
func (ns *NotifyServer) Start() {
	ns.Broker.Start()
}

// Close 关闭通知服务器
func (ns *NotifyServer) Close() {
	ns.Broker.Close()
	if ns.KafkaClient != nil {
		ns.KafkaClient.KafkaClose()
	}
}

// publish 序列化信封并交给代理
func (ns *NotifyServer) publish(ctx context.Context, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "marshal envelope")
	}
	return ns.Broker.Publish(ctx, data)
}

// ==================== Notifier 接口实现 ====================

// Notify 给指定账号发送一条固定文案通知
func (ns *NotifyServer) Notify(ctx context.Context, handle string, kind Kind, hasPartner bool) error {
	return ns.publish(ctx, envelope{
		Type:       envelopeNotify,
		Handle:     handle,
		Kind:       kind,
		HasPartner: hasPartner,
		Body:       renderBody(kind, hasPartner),
	})
}

// RelayText 把聊天文字转发给指定账号
func (ns *NotifyServer) RelayText(ctx context.Context, toHandle string, fromBody string, me bool) error {
	kind := KindMessage
	if me {
		kind = KindMe
	}
	return ns.publish(ctx, envelope{
		Type:   envelopeNotify,
		Handle: toHandle,
		Kind:   kind,
		Body:   renderRelay(fromBody, me),
	})
}

// NotifyStatus 向指定账号推送在线状态行
func (ns *NotifyServer) NotifyStatus(ctx context.Context, handle string, status string) error {
	return ns.publish(ctx, envelope{
		Type:   envelopeNotify,
		Handle: handle,
		Kind:   KindStatus,
		Body:   status,
	})
}

// BroadcastEvent 向所有统计页通道推送一段 JSON 负载
func (ns *NotifyServer) BroadcastEvent(ctx context.Context, payload []byte) error {
	return ns.publish(ctx, envelope{
		Type: envelopeBroadcast,
		Body: string(payload),
	})
}

// IsConnected 指定账号当前是否连在本机
// Kafka 多实例部署下这只能看到本机连接，跨实例的在线状态
// 由 presence 服务的 Redis 集合兜底
func (ns *NotifyServer) IsConnected(handle string) bool {
	return ns.Broker.GetClient(handle) != nil
}

var _ Notifier = (*NotifyServer)(nil)

// ==================== websocket 注入接口实现 ====================

// SendClientToLogin 实现 websocket.ClientManager
func (ns *NotifyServer) SendClientToLogin(client *websocket.Client) {
	ns.Broker.RegisterClient(client)
}

// SendClientToLogout 实现 websocket.ClientManager
func (ns *NotifyServer) SendClientToLogout(client *websocket.Client) {
	ns.Broker.UnregisterClient(client)
}

// GetClient 实现 websocket.ClientManager
func (ns *NotifyServer) GetClient(id string) *websocket.Client {
	return ns.Broker.GetClient(id)
}

// PublishRelay 实现 websocket.InboundPublisher
// 每条入站文字分配一个雪花序号，排障时可据此追踪单条消息
func (ns *NotifyServer) PublishRelay(handle string, body string) error {
	return ns.publish(context.Background(), envelope{
		Type:   envelopeRelay,
		Handle: handle,
		Body:   body,
		Seq:    snowflake.GenerateID(),
	})
}

var _ websocket.ClientManager = (*NotifyServer)(nil)
var _ websocket.InboundPublisher = (*NotifyServer)(nil)
