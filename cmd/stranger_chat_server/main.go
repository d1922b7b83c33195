package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stranger_chat_server/internal/config"
	dao "stranger_chat_server/internal/dao/mysql"
	myredis "stranger_chat_server/internal/dao/redis"
	"stranger_chat_server/internal/gateway/websocket"
	"stranger_chat_server/internal/handler"
	"stranger_chat_server/internal/https_server"
	"stranger_chat_server/internal/infrastructure/logger"
	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/internal/service"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/pkg/util/jwt"
	"stranger_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	cache := myredis.GetCacheService()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT 和雪花 ID
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init()
	zap.L().Info("JWT 和雪花 ID 初始化成功")

	// 6. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}

	// 7. 初始化后台任务队列
	queue := task.NewQueue(10, 1000)

	// 8. 初始化通知服务器
	// channel 模式走进程内通道，kafka 模式经消息队列转发
	notifyServer := notify.NewNotifyServer(conf.KafkaConfig.MessageMode)
	if conf.KafkaConfig.MessageMode == "kafka" {
		notifyServer.InitKafka()
	}
	// 注入 ClientManager 和 InboundPublisher 接口实现 (依赖倒置: websocket → notify)
	websocket.SetClientManager(notifyServer)
	websocket.SetInboundPublisher(notifyServer)
	zap.L().Info("通知服务器初始化成功")

	// 9. 初始化 Service 层 (依赖注入)
	// notifyServer 同时充当通知投递和在线连接探测两个角色
	service.InitServices(repos, cache, queue, notifyServer, notifyServer)
	// 编排器接收入站文字和连接事件
	notifyServer.SetRelaySink(service.Svc.Dispatcher)
	websocket.SetPresenceListener(service.Svc.Dispatcher)
	zap.L().Info("Service 层初始化成功")

	// 10. 启动通知服务器
	go notifyServer.Start()

	// 11. 初始化 HTTP 服务器并启动
	handlers := handler.NewHandlers(service.Svc, cache)
	engine := https_server.Init(handlers)

	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	go func() {
		if err := engine.Run(fmt.Sprintf("%s:%d", host, port)); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务器启动成功", zap.String("host", host), zap.Int("port", port))

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待信号
	<-quit

	zap.L().Info("关闭服务器...")
	notifyServer.Close()
	zap.L().Info("服务器已关闭")
}
