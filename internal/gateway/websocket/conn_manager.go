// Package websocket 管理 WebSocket 连接的生命周期
// 1. 建立 WebSocket 连接 (Upgrade)
// 2. 封装 Client 对象，管理读写协程 (Read/Write Loop)
// 3. 聊天客户端：连上即上线、断开即下线，入站文字投递给消息代理
// 4. 统计页通道：只写不读，服务端推送统计和事件
package websocket

import (
	"net/http"
	"strings"
	"sync"

	"stranger_chat_server/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientKind 连接用途
type ClientKind int

const (
	// KindChat 陌生人聊天客户端，Id 为归一化 handle
	KindChat ClientKind = iota
	// KindStatsChannel 统计页推送通道，Id 为随机 clientId
	KindStatsChannel
)

// Client WebSocket 客户端连接
type Client struct {
	Conn     *websocket.Conn
	Id       string
	Kind     ClientKind
	SendBack chan []byte // 服务端推给前端的消息

	closeOnce sync.Once
}

// Close 关闭底层连接并结束写协程
// 登出可能从读协程和通道销毁两路并发到达，关闭只执行一次；
// SendBack 只在这里关闭，由消息代理在注销后调用（与投递在同一循环里串行）
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		close(c.SendBack)
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 检查连接的Origin头
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Read 读协程
// 聊天客户端发来的文字视为聊天内容，投递给消息代理转发给配对对象；
// 统计页通道不期待入站数据，收到什么都丢弃。
// 读出错即视为断开，触发登出和下线
func (c *Client) Read() {
	zap.L().Info("ws read goroutine start", zap.String("id", c.Id))
	defer func() {
		_ = ClientLogout(c.Id)
	}()
	for {
		_, data, err := c.Conn.ReadMessage() // 阻塞状态
		if err != nil {
			zap.L().Info("ws read closed", zap.String("id", c.Id), zap.Error(err))
			return
		}
		if c.Kind != KindChat {
			continue
		}
		body := strings.TrimSpace(string(data))
		if body == "" {
			continue
		}
		if inboundPublisher == nil {
			zap.L().Error("InboundPublisher not initialized")
			continue
		}
		if err := inboundPublisher.PublishRelay(c.Id, body); err != nil {
			zap.L().Error("publish inbound message failed", zap.String("id", c.Id), zap.Error(err))
		}
	}
}

// Write 写协程，从 SendBack 通道读取消息发送给前端
func (c *Client) Write() {
	zap.L().Info("ws write goroutine start", zap.String("id", c.Id))
	for message := range c.SendBack { // 阻塞状态
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			zap.L().Error(err.Error())
			return // 直接断开websocket
		}
	}
}

// NewChatClientInit 聊天客户端连接建立时调用
// 注册连接并把该账号标记为在线可配对
func NewChatClientInit(c *gin.Context, handle string) {
	client := newClient(c, handle, KindChat)
	if client == nil {
		return
	}
	if presenceListener != nil {
		presenceListener.OnConnect(handle)
	}
	zap.L().Info("chat ws connected", zap.String("handle", handle))
}

// NewChannelClientInit 统计页通道连接建立时调用
func NewChannelClientInit(c *gin.Context, clientId string) {
	client := newClient(c, clientId, KindStatsChannel)
	if client == nil {
		return
	}
	zap.L().Info("stats channel ws connected", zap.String("clientId", clientId))
}

func newClient(c *gin.Context, id string, kind ClientKind) *Client {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error(err.Error())
		return nil
	}
	client := &Client{
		Conn:     conn,
		Id:       id,
		Kind:     kind,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	if cm := GetClientManager(); cm != nil {
		cm.SendClientToLogin(client)
	} else {
		zap.L().Error("ClientManager not initialized")
	}
	go client.Read()
	go client.Write()
	return client
}

// ClientLogout 连接断开时调用
// 聊天客户端额外触发下线，重复调用安全。
// 这里只投递登出事件，连接的实际关闭由消息代理在注销后完成，
// 避免和投递中的写入撞上已关闭的通道
func ClientLogout(id string) error {
	cm := GetClientManager()
	if cm == nil {
		zap.L().Error("ClientManager not initialized")
		return nil
	}
	client := cm.GetClient(id)
	if client == nil {
		return nil
	}
	cm.SendClientToLogout(client)
	if client.Kind == KindChat && presenceListener != nil {
		presenceListener.OnDisconnect(client.Id)
	}
	return nil
}
