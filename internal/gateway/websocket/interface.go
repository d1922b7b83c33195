package websocket

// InboundPublisher 入站消息发布接口
// 聊天客户端通过 WebSocket 发来的文字走这里进入消息代理，
// 用于解耦 websocket 包对 notify 包的依赖
type InboundPublisher interface {
	PublishRelay(handle string, body string) error
}

// ClientManager 客户端登录登出管理接口
// 由消息代理实现（Channel 模式和 Kafka 模式各有一套）
type ClientManager interface {
	SendClientToLogin(client *Client)
	SendClientToLogout(client *Client)
	GetClient(id string) *Client
}

// PresenceListener 在线状态监听接口
// 聊天客户端连上即视为上线可配对，断开即视为下线，
// 由 presence 服务实现并在 main 中注入
type PresenceListener interface {
	OnConnect(handle string)
	OnDisconnect(handle string)
}

// 存储注入的实现
var inboundPublisher InboundPublisher
var clientManager ClientManager
var presenceListener PresenceListener

// SetInboundPublisher 注入 InboundPublisher 实现
func SetInboundPublisher(p InboundPublisher) {
	inboundPublisher = p
}

// SetClientManager 注入 ClientManager 实现
func SetClientManager(manager ClientManager) {
	clientManager = manager
}

// GetClientManager 获取 ClientManager 实现
func GetClientManager() ClientManager {
	return clientManager
}

// SetPresenceListener 注入 PresenceListener 实现
func SetPresenceListener(l PresenceListener) {
	presenceListener = l
}
