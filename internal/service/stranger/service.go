// Package stranger 实现陌生人会话控制器
// start/stop/next/上下线/转发 五种状态转换都在这里完成。
// 配对指针分两次独立写入，不保证互指，所有读取方在使用前
// 必须做互指校验，发现不一致按未配对处理并在本次转换中修复
package stranger

import (
	"stranger_chat_server/internal/config"
	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/internal/service/matching"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// ConnectivityChecker 传输层连通性检查
// 由通知服务器实现，转发前确认对方确实连着
type ConnectivityChecker interface {
	IsConnected(handle string) bool
}

// Notice 一条待发通知的义务
type Notice struct {
	Handle     string
	Kind       notify.Kind
	HasPartner bool
}

// RelayPayload 待转发的聊天文字
type RelayPayload struct {
	To   string
	Body string
	Me   bool
}

// Outcome 一次状态转换产生的全部副作用义务
// 控制器只改存储并汇报义务，通知投递、计数更新、统计广播
// 由调用方（HTTP Handler 或入站消息编排器）按义务逐项兑现
type Outcome struct {
	// Notices 待发通知，按序兑现
	Notices []Notice
	// Relay 待转发的聊天文字，nil 表示无
	Relay *RelayPayload
	// Event 统计页广播事件名，空串表示不广播
	Event string
	// StatsChanged 广播时是否携带最新统计
	StatsChanged bool
	// ActiveDelta 活跃人数计数增量
	ActiveDelta int64
	// MessagesDelta 消息数计数增量
	MessagesDelta int64
	// PresenceChanged 是否需要刷新活跃名单并向全员推送在线状态
	PresenceChanged bool
	// Subject 操作主体，PresenceChanged 时用于刷新活跃名单
	Subject *model.Account
}

func (o *Outcome) notice(acct *model.Account, kind notify.Kind) {
	if acct == nil {
		return
	}
	o.Notices = append(o.Notices, Notice{
		Handle:     acct.Handle,
		Kind:       kind,
		HasPartner: acct.HasPartner(),
	})
}

// Service 会话控制器
type Service struct {
	accountRepo  repository.AccountRepository
	matcher      *matching.Service
	connectivity ConnectivityChecker
}

// NewStrangerService 创建会话控制器实例
func NewStrangerService(
	accountRepo repository.AccountRepository,
	matcher *matching.Service,
	connectivity ConnectivityChecker,
) *Service {
	return &Service{
		accountRepo:  accountRepo,
		matcher:      matcher,
		connectivity: connectivity,
	}
}

// recentPartnerCap 近期配对对象的保留个数，配置缺省时取内置值
func recentPartnerCap() int {
	if n := config.GetConfig().StrangerConfig.RecentPartnerCap; n > 0 {
		return n
	}
	return constants.RECENT_PARTNER_CAP
}

// startChat 给 alice 找对象并互相链接
// excludeHandle 是要避开的上一个对象。两侧各自独立写入，
// 第二次写失败只记日志：留下的单向指针由互指校验自愈
func (s *Service) startChat(alice *model.Account, excludeHandle string) (*model.Account, error) {
	carol, err := s.matcher.FindPartner(alice, excludeHandle)
	if err != nil {
		return nil, err
	}
	if carol == nil {
		alice.PartnerHandle = ""
		return nil, s.accountRepo.Persist(alice)
	}

	alice.PartnerHandle = carol.Handle
	carol.PartnerHandle = alice.Handle
	limit := recentPartnerCap()
	alice.PushRecentPartner(carol.Handle, limit)
	carol.PushRecentPartner(alice.Handle, limit)

	if err := s.accountRepo.Persist(alice, carol); err != nil {
		zap.L().Error("persist paired accounts failed",
			zap.String("alice", alice.Handle), zap.String("carol", carol.Handle), zap.Error(err))
	}
	return carol, nil
}

// stopChat 解除 alice 的配对
// 对方只有互指时才一并解除；对方不互指说明链接本就只剩单向，
// 不动对方的数据，返回 nil 表示没有需要善后的对象
func (s *Service) stopChat(alice *model.Account) (*model.Account, error) {
	bobHandle := alice.PartnerHandle
	alice.PartnerHandle = ""

	var bob *model.Account
	if bobHandle != "" {
		found, err := s.accountRepo.FindByHandle(bobHandle)
		if err != nil {
			if errorx.GetCode(err) != errorx.CodeNotFound {
				return nil, err
			}
		} else if found.PartnerHandle == alice.Handle {
			bob = found
			bob.PartnerHandle = ""
		} else {
			// 单向指针，按未配对处理，本次写入即修复 alice 这一侧
			zap.L().Warn("partner link not reciprocal",
				zap.String("handle", alice.Handle), zap.String("partner", bobHandle),
				zap.Error(errorx.Newf(errorx.CodeInconsistentState,
					"%s 指向 %s 但对方未回指", alice.Handle, bobHandle)))
		}
	}

	if bob != nil {
		return bob, s.accountRepo.Persist(alice, bob)
	}
	return nil, s.accountRepo.Persist(alice)
}

// Start 开启配对（/start）
// 幂等：已开启时只回一条提示，不动任何状态
func (s *Service) Start(handle string) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if alice.Started {
		out.notice(alice, notify.KindAlreadyStarted)
		return out, nil
	}

	alice.Started = true
	alice.Available = true
	carol, err := s.startChat(alice, "")
	if err != nil {
		return nil, err
	}

	out.notice(alice, notify.KindStarted)
	out.notice(carol, notify.KindChatting)
	out.Event = constants.StartEvent
	out.StatsChanged = true
	out.ActiveDelta = 1
	out.PresenceChanged = true
	out.Subject = alice
	return out, nil
}

// Stop 关闭配对（/stop)
// 原对象 bob 立即回池重配，避免他干等
func (s *Service) Stop(handle string) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if !alice.Started {
		out.notice(alice, notify.KindAlreadyStopped)
		return out, nil
	}

	alice.Started = false
	bob, err := s.stopChat(alice)
	if err != nil {
		return nil, err
	}

	var carol *model.Account
	if bob != nil {
		carol, err = s.startChat(bob, alice.Handle)
		if err != nil {
			return nil, err
		}
	}

	out.notice(alice, notify.KindStopped)
	if bob != nil && !bob.Equal(alice) {
		out.notice(bob, notify.KindBeenNexted)
	}
	if carol != nil && !carol.Equal(alice) && !carol.Equal(bob) {
		out.notice(carol, notify.KindChatting)
	}
	out.Event = constants.StopEvent
	out.StatsChanged = true
	out.ActiveDelta = -1
	out.PresenceChanged = true
	out.Subject = alice
	return out, nil
}

// Next 换一个对象（/next）
// 级联重配：alice 解除 bob -> alice 配上 carol -> bob 配上 dave。
// 四个角色可能重叠（比如池子里只剩 alice 和 bob），
// 每条通知都要按去重后的角色判断发不发
func (s *Service) Next(handle string) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if !alice.Started {
		out.notice(alice, notify.KindNotStarted)
		return out, nil
	}
	if !alice.HasPartner() {
		out.notice(alice, notify.KindNotChatting)
		return out, nil
	}

	prevHandle := alice.PartnerHandle
	bob, err := s.stopChat(alice)
	if err != nil {
		return nil, err
	}
	carol, err := s.startChat(alice, prevHandle)
	if err != nil {
		return nil, err
	}

	var dave *model.Account
	if bob != nil && !bob.Equal(alice) && !bob.Equal(carol) {
		dave, err = s.startChat(bob, alice.Handle)
		if err != nil {
			return nil, err
		}
	}

	out.notice(alice, notify.KindNexted)
	if bob != nil && !bob.Equal(alice) {
		out.notice(bob, notify.KindBeenNexted)
	}
	if carol != nil && !carol.Equal(alice) && !carol.Equal(bob) {
		out.notice(carol, notify.KindChatting)
	}
	if dave != nil && !dave.Equal(alice) && !dave.Equal(bob) && !dave.Equal(carol) {
		out.notice(dave, notify.KindChatting)
	}
	out.Event = constants.NextEvent
	return out, nil
}

// SetAvailable 上下线切换
// 未开启配对或状态没变时是无副作用的空转，返回空义务。
// 上线立即尝试配对；下线解除配对并给对方重配
func (s *Service) SetAvailable(handle string, available bool) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		// 未注册的连接事件直接忽略
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return &Outcome{}, nil
		}
		return nil, err
	}

	out := &Outcome{}
	if !alice.Started || alice.Available == available {
		return out, nil
	}
	alice.Available = available

	if available {
		carol, err := s.startChat(alice, "")
		if err != nil {
			return nil, err
		}
		if carol != nil {
			out.notice(alice, notify.KindChatting)
			out.notice(carol, notify.KindChatting)
		}
		out.Event = constants.AvailableEvent
		out.ActiveDelta = 1
	} else {
		bob, err := s.stopChat(alice)
		if err != nil {
			return nil, err
		}
		if bob != nil {
			carol, err := s.startChat(bob, alice.Handle)
			if err != nil {
				return nil, err
			}
			out.notice(bob, notify.KindBeenNexted)
			if carol != nil && !carol.Equal(alice) {
				out.notice(carol, notify.KindChatting)
			}
		}
		out.Event = constants.UnavailableEvent
		out.ActiveDelta = -1
	}

	out.StatsChanged = true
	out.PresenceChanged = true
	out.Subject = alice
	return out, nil
}

// RelayMessage 转发聊天文字（普通消息或 /me 动作）
// 转发前做两道检查：互指校验（存储层）和连通性检查（传输层），
// 任一不过都回 undeliverable，绝不把消息发给错误的人
func (s *Service) RelayMessage(handle string, body string, me bool) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	if !alice.Started {
		out.notice(alice, notify.KindNotStarted)
		return out, nil
	}
	if !alice.HasPartner() {
		out.notice(alice, notify.KindNotChatting)
		return out, nil
	}

	bob, err := s.accountRepo.FindByHandle(alice.PartnerHandle)
	if err != nil && errorx.GetCode(err) != errorx.CodeNotFound {
		return nil, err
	}

	if bob == nil || bob.PartnerHandle != alice.Handle {
		partner := ""
		if bob != nil {
			partner = bob.PartnerHandle
		}
		zap.L().Warn("message undeliverable",
			zap.String("from", alice.Handle),
			zap.String("to", alice.PartnerHandle),
			zap.Error(errorx.Newf(errorx.CodeInconsistentState,
				"对方回指 %q 而非 %s", partner, alice.Handle)))
		out.notice(alice, notify.KindUndeliverable)
		return out, nil
	}
	if s.connectivity != nil && !s.connectivity.IsConnected(bob.Handle) {
		zap.L().Warn("message undeliverable",
			zap.String("from", alice.Handle),
			zap.String("to", bob.Handle),
			zap.String("reason", "partner offline"))
		out.notice(alice, notify.KindUndeliverable)
		return out, nil
	}

	out.Relay = &RelayPayload{To: bob.Handle, Body: body, Me: me}
	out.Event = constants.MessageEvent
	if me {
		out.Event = constants.MeEvent
	}
	out.StatsChanged = true
	out.MessagesDelta = 1
	return out, nil
}

// Help 帮助文案（/help）
func (s *Service) Help(handle string) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}
	out := &Outcome{}
	out.notice(alice, notify.KindHelp)
	out.Event = constants.HelpEvent
	return out, nil
}

// Who 当前状态查询（/who）
// 配对匿名，文案只说有没有对象，不透露对方身份
func (s *Service) Who(handle string) (*Outcome, error) {
	alice, err := s.accountRepo.FindByHandle(handle)
	if err != nil {
		return nil, err
	}
	out := &Outcome{}
	out.notice(alice, notify.KindWho)
	out.Event = constants.WhoEvent
	return out, nil
}
