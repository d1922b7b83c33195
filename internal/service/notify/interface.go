// Package notify 实现通知投递层
// server.go 之外的文件分别是两种消息代理实现：
// ChannelBroker（单机内存通道）和 KafkaBroker（分布式消息队列），
// 服务层只依赖 Notifier 接口，不感知底层是哪种代理
package notify

import (
	"context"

	"stranger_chat_server/internal/gateway/websocket"
)

// Kind 通知类型
// 每种类型对应一段固定文案（见 texts.go），部分文案随是否有配对对象而变化
type Kind string

const (
	KindAlreadyStarted Kind = "already_started"
	KindStarted        Kind = "started"
	KindChatting       Kind = "chatting"
	KindNotStarted     Kind = "not_started"
	KindNotChatting    Kind = "not_chatting"
	KindNexted         Kind = "nexted"
	KindBeenNexted     Kind = "been_nexted"
	KindAlreadyStopped Kind = "already_stopped"
	KindStopped        Kind = "stopped"
	KindUndeliverable  Kind = "undeliverable"
	KindHelp           Kind = "help"
	KindWho            Kind = "who"
	// KindRequiresAccount 未注册的地址发来入站文字时的回复
	KindRequiresAccount Kind = "requires_account"
	// KindMessage / KindMe / KindStatus 携带正文而非固定文案
	KindMessage Kind = "message"
	KindMe      Kind = "me"
	KindStatus  Kind = "status"
)

// envelope 代理内部流转的消息信封
type envelope struct {
	// Type 信封类型: notify(服务端通知) / relay(入站聊天文字) / broadcast(统计页广播)
	Type string `json:"type"`
	// Handle 目标账号(notify)或来源账号(relay)，broadcast 为空
	Handle     string `json:"handle,omitempty"`
	Kind       Kind   `json:"kind,omitempty"`
	HasPartner bool   `json:"has_partner,omitempty"`
	Body       string `json:"body,omitempty"`
	// Seq 雪花序号，relay 信封用于排障追踪
	Seq int64 `json:"seq,omitempty"`
}

const (
	envelopeNotify    = "notify"
	envelopeRelay     = "relay"
	envelopeBroadcast = "broadcast"
)

// Notifier 通知投递接口，服务层的唯一依赖入口
//
// 投递是尽力而为：目标不在线时消息直接丢弃，不排队不重发。
// 能否送达的业务判断（互指校验）在调用方完成，这里只负责传输
type Notifier interface {
	// Notify 给指定账号发送一条固定文案通知
	Notify(ctx context.Context, handle string, kind Kind, hasPartner bool) error
	// RelayText 把聊天文字转发给指定账号，me 为 true 时按动作消息渲染
	RelayText(ctx context.Context, toHandle string, fromBody string, me bool) error
	// NotifyStatus 向指定账号推送在线状态行（带当前统计）
	NotifyStatus(ctx context.Context, handle string, status string) error
	// BroadcastEvent 向所有统计页通道推送一段 JSON 负载
	BroadcastEvent(ctx context.Context, payload []byte) error
	// IsConnected 指定账号当前是否有活跃的 WebSocket 连接
	IsConnected(handle string) bool
}

// RelaySink 入站聊天文字的业务处理接口
// 由会话控制器实现，代理消费循环收到 relay 信封时调用
type RelaySink interface {
	HandleInbound(handle string, body string)
}

// Broker 消息代理接口
// 支持多种实现：KafkaBroker(分布式)、ChannelBroker(单机)
type Broker interface {
	// Publish 发布信封到消息队列/通道
	Publish(ctx context.Context, msg []byte) error
	// RegisterClient 注册客户端连接
	RegisterClient(client *websocket.Client)
	// UnregisterClient 注销客户端连接
	UnregisterClient(client *websocket.Client)
	// GetClient 获取指定客户端的连接
	GetClient(id string) *websocket.Client
	// SetRelaySink 注入入站文字的业务处理实现
	SetRelaySink(sink RelaySink)
	// Start 启动消费循环
	Start()
	// Close 关闭代理资源
	Close()
}
