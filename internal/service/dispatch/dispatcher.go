// Package dispatch 编排一次操作的完整生命周期
// 会话控制器只改存储并返回副作用义务（Outcome），
// 这里负责逐项兑现：投递通知、转发文字、更新计数、广播统计。
// HTTP 接口和 WebSocket 入站文字共用同一套编排逻辑
package dispatch

import (
	"context"
	"strings"

	"stranger_chat_server/internal/model"
	"stranger_chat_server/internal/service/account"
	"stranger_chat_server/internal/service/counter"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/internal/service/presence"
	"stranger_chat_server/internal/service/stranger"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Dispatcher 操作编排器
type Dispatcher struct {
	accounts *account.Service
	stranger *stranger.Service
	presence *presence.Service
	counter  *counter.Service
	notifier notify.Notifier
}

// NewDispatcher 创建编排器实例
func NewDispatcher(
	accounts *account.Service,
	strangerSvc *stranger.Service,
	presenceSvc *presence.Service,
	counterSvc *counter.Service,
	notifier notify.Notifier,
) *Dispatcher {
	return &Dispatcher{
		accounts: accounts,
		stranger: strangerSvc,
		presence: presenceSvc,
		counter:  counterSvc,
		notifier: notifier,
	}
}

// fulfill 逐项兑现一次状态转换的副作用义务
// 通知投递尽力而为，失败只记日志；计数和广播同样不阻塞主流程
func (d *Dispatcher) fulfill(ctx context.Context, out *stranger.Outcome) {
	if out == nil {
		return
	}

	for _, n := range out.Notices {
		if err := d.notifier.Notify(ctx, n.Handle, n.Kind, n.HasPartner); err != nil {
			zap.L().Warn("send notice failed",
				zap.String("handle", n.Handle), zap.String("kind", string(n.Kind)), zap.Error(err))
		}
	}

	if out.Relay != nil {
		if err := d.notifier.RelayText(ctx, out.Relay.To, out.Relay.Body, out.Relay.Me); err != nil {
			zap.L().Warn("relay text failed", zap.String("to", out.Relay.To), zap.Error(err))
		}
	}

	if out.MessagesDelta != 0 {
		if err := d.counter.Increment(ctx, constants.NumMessagesKey, out.MessagesDelta, true); err != nil {
			zap.L().Warn("increment message counter failed", zap.Error(err))
		}
	}
	if out.ActiveDelta != 0 {
		d.presence.UpdateStat(ctx, out.ActiveDelta)
	}

	if out.Event != "" {
		d.presence.Broadcast(ctx, out.StatsChanged, out.Event)
	}

	if out.PresenceChanged {
		d.presence.UpdateActiveUsers(ctx, out.Subject)
		d.presence.SendPresenceToAll(ctx)
	}
}

// ==================== 命令入口 ====================

// SignUp 注册账号
// 新账号计入注册总数，发一条帮助文案，并广播注册事件
func (d *Dispatcher) SignUp(ctx context.Context, raw string) (*model.Account, bool, error) {
	acct, created, err := d.accounts.SignUp(raw)
	if err != nil {
		return nil, false, err
	}
	if created {
		if err := d.counter.Increment(ctx, constants.NumUsersKey, 1, true); err != nil {
			zap.L().Warn("increment user counter failed", zap.Error(err))
		}
		if err := d.notifier.Notify(ctx, acct.Handle, notify.KindHelp, false); err != nil {
			zap.L().Warn("send welcome help failed", zap.String("handle", acct.Handle), zap.Error(err))
		}
		d.presence.Broadcast(ctx, true, constants.SignUpEvent)
		// 注册改变了总人数，给所有在线用户推一次最新状态行
		d.presence.SendPresenceToAll(ctx)
	}
	return acct, created, nil
}

// GetAccount 取已注册账号
func (d *Dispatcher) GetAccount(ctx context.Context, raw string) (*model.Account, error) {
	return d.accounts.GetAccount(raw)
}

// Start 开启配对
func (d *Dispatcher) Start(ctx context.Context, handle string) error {
	out, err := d.stranger.Start(handle)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// Stop 关闭配对
func (d *Dispatcher) Stop(ctx context.Context, handle string) error {
	out, err := d.stranger.Stop(handle)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// Next 换一个对象
func (d *Dispatcher) Next(ctx context.Context, handle string) error {
	out, err := d.stranger.Next(handle)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// Help 帮助文案
func (d *Dispatcher) Help(ctx context.Context, handle string) error {
	out, err := d.stranger.Help(handle)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// Who 当前状态查询
func (d *Dispatcher) Who(ctx context.Context, handle string) error {
	out, err := d.stranger.Who(handle)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// SetAvailable 上下线切换
func (d *Dispatcher) SetAvailable(ctx context.Context, handle string, available bool) error {
	out, err := d.stranger.SetAvailable(handle, available)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// Relay 转发聊天文字
func (d *Dispatcher) Relay(ctx context.Context, handle string, body string, me bool) error {
	out, err := d.stranger.RelayMessage(handle, body, me)
	if err != nil {
		return err
	}
	d.fulfill(ctx, out)
	return nil
}

// ==================== WebSocket 注入接口实现 ====================

// HandleInbound 实现 notify.RelaySink
// 斜杠命令分发到对应操作，其余文字原样转发给配对对象；
// 无法识别的斜杠命令回帮助文案而不是当聊天内容转发出去
func (d *Dispatcher) HandleInbound(handle string, body string) {
	ctx := context.Background()
	var err error

	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "/help":
		err = d.Help(ctx, handle)
	case trimmed == "/start":
		err = d.Start(ctx, handle)
	case trimmed == "/next":
		err = d.Next(ctx, handle)
	case trimmed == "/stop":
		err = d.Stop(ctx, handle)
	case trimmed == "/who":
		err = d.Who(ctx, handle)
	case strings.HasPrefix(trimmed, "/me "):
		err = d.Relay(ctx, handle, strings.TrimPrefix(trimmed, "/me "), true)
	case strings.HasPrefix(trimmed, "/"):
		zap.L().Info("unknown slash command", zap.String("handle", handle), zap.String("body", trimmed))
		err = d.Help(ctx, handle)
	default:
		err = d.Relay(ctx, handle, trimmed, false)
	}

	if err != nil {
		// 未注册的来源回一条注册引导，其余错误只记日志
		if errorx.GetCode(err) == errorx.CodeNotFound {
			if nerr := d.notifier.Notify(ctx, handle, notify.KindRequiresAccount, false); nerr != nil {
				zap.L().Warn("send requires-account notice failed",
					zap.String("handle", handle), zap.Error(nerr))
			}
			return
		}
		zap.L().Error("handle inbound message failed", zap.String("handle", handle), zap.Error(err))
	}
}

// OnConnect 实现 websocket.PresenceListener：连上即上线
func (d *Dispatcher) OnConnect(handle string) {
	if err := d.SetAvailable(context.Background(), handle, true); err != nil {
		zap.L().Error("mark available failed", zap.String("handle", handle), zap.Error(err))
	}
}

// OnDisconnect 实现 websocket.PresenceListener：断开即下线
func (d *Dispatcher) OnDisconnect(handle string) {
	if err := d.SetAvailable(context.Background(), handle, false); err != nil {
		zap.L().Error("mark unavailable failed", zap.String("handle", handle), zap.Error(err))
	}
}

var _ notify.RelaySink = (*Dispatcher)(nil)
