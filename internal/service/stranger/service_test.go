package stranger

import (
	"testing"

	"stranger_chat_server/internal/config"
	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/internal/service/matching"
	"stranger_chat_server/internal/service/notify"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccountRepo 内存版账号仓库
// 读取返回副本、写入存副本，模拟真实存储的读写语义
type fakeAccountRepo struct {
	accounts map[string]*model.Account
	order    []string // 等待池顺序，最久等待的排前面
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) add(acct model.Account) {
	copied := acct
	f.accounts[acct.Handle] = &copied
	f.order = append(f.order, acct.Handle)
}

func (f *fakeAccountRepo) get(handle string) *model.Account {
	return f.accounts[handle]
}

func (f *fakeAccountRepo) GetOrCreate(handle string) (*model.Account, bool, error) {
	if acct, ok := f.accounts[handle]; ok {
		copied := *acct
		return &copied, false, nil
	}
	f.add(model.Account{Handle: handle})
	copied := *f.accounts[handle]
	return &copied, true, nil
}

func (f *fakeAccountRepo) FindByHandle(handle string) (*model.Account, error) {
	acct, ok := f.accounts[handle]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "账号 %s 不存在", handle)
	}
	copied := *acct
	return &copied, nil
}

func (f *fakeAccountRepo) QueryWaiting(excludeChatting bool, cursor repository.Cursor, limit int) ([]model.Account, error) {
	start := 0
	if !cursor.IsZero() {
		for i, h := range f.order {
			if h == cursor.Handle {
				start = i + 1
				break
			}
		}
	}
	var page []model.Account
	for i := start; i < len(f.order) && len(page) < limit; i++ {
		acct := f.accounts[f.order[i]]
		if !acct.Started || !acct.Available {
			continue
		}
		if excludeChatting && acct.HasPartner() {
			continue
		}
		page = append(page, *acct)
	}
	return page, nil
}

func (f *fakeAccountRepo) QueryActive(cursor repository.Cursor, limit int) ([]model.Account, error) {
	var page []model.Account
	for _, h := range f.order {
		acct := f.accounts[h]
		if acct.IsActive() && len(page) < limit {
			page = append(page, *acct)
		}
	}
	return page, nil
}

func (f *fakeAccountRepo) Persist(accounts ...*model.Account) error {
	for _, acct := range accounts {
		copied := *acct
		f.accounts[acct.Handle] = &copied
	}
	return nil
}

func (f *fakeAccountRepo) CountAll() (int64, error) {
	return int64(len(f.accounts)), nil
}

func (f *fakeAccountRepo) CountActive() (int64, error) {
	var n int64
	for _, acct := range f.accounts {
		if acct.IsActive() {
			n++
		}
	}
	return n, nil
}

// fakeConnectivity 连通性表，未登记的 handle 视为连着
type fakeConnectivity map[string]bool

func (f fakeConnectivity) IsConnected(handle string) bool {
	connected, ok := f[handle]
	if !ok {
		return true
	}
	return connected
}

func newTestService(repo *fakeAccountRepo, conn fakeConnectivity) *Service {
	return NewStrangerService(repo, matching.NewMatchingService(repo), conn)
}

// kindsByHandle 把通知义务按接收方收拢，方便断言
func kindsByHandle(out *Outcome) map[string]notify.Kind {
	kinds := make(map[string]notify.Kind)
	for _, n := range out.Notices {
		kinds[n.Handle] = n.Kind
	}
	return kinds
}

func waitingAccount(handle string) model.Account {
	return model.Account{Handle: handle, Started: true, Available: true}
}

func TestStartPairsWithWaitingPartner(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(waitingAccount("bob@example.com"))
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.Start("alice@example.com")
	require.NoError(t, err)

	alice, bob := repo.get("alice@example.com"), repo.get("bob@example.com")
	assert.True(t, alice.Started)
	assert.True(t, alice.Available)
	assert.Equal(t, "bob@example.com", alice.PartnerHandle)
	assert.Equal(t, "alice@example.com", bob.PartnerHandle)

	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindStarted, kinds["alice@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["bob@example.com"])
	assert.Equal(t, constants.StartEvent, out.Event)
	assert.Equal(t, int64(1), out.ActiveDelta)
	assert.True(t, out.PresenceChanged)
}

func TestStartAloneWaits(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.Start("alice@example.com")
	require.NoError(t, err)

	assert.Empty(t, repo.get("alice@example.com").PartnerHandle)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindStarted, out.Notices[0].Kind)
	assert.False(t, out.Notices[0].HasPartner)
}

func TestStartIdempotent(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(waitingAccount("alice@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.Start("alice@example.com")
	require.NoError(t, err)

	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindAlreadyStarted, out.Notices[0].Kind)
	assert.Empty(t, out.Event)
	assert.Zero(t, out.ActiveDelta)
}

func TestStartUnknownAccount(t *testing.T) {
	svc := newTestService(newFakeAccountRepo(), nil)
	_, err := svc.Start("nobody@example.com")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestStopRepairsPartner(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(bob)
	repo.add(alice)
	repo.add(waitingAccount("carol@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.Stop("alice@example.com")
	require.NoError(t, err)

	assert.False(t, repo.get("alice@example.com").Started)
	assert.Empty(t, repo.get("alice@example.com").PartnerHandle)
	// bob 立即回池并配上 carol
	assert.Equal(t, "carol@example.com", repo.get("bob@example.com").PartnerHandle)
	assert.Equal(t, "bob@example.com", repo.get("carol@example.com").PartnerHandle)

	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindStopped, kinds["alice@example.com"])
	assert.Equal(t, notify.KindBeenNexted, kinds["bob@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["carol@example.com"])
	assert.Equal(t, int64(-1), out.ActiveDelta)
	assert.Equal(t, constants.StopEvent, out.Event)
}

func TestStopIdempotent(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.Stop("alice@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindAlreadyStopped, out.Notices[0].Kind)
	assert.Zero(t, out.ActiveDelta)
}

func TestNextCascade(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(bob)
	repo.add(alice)
	repo.add(waitingAccount("carol@example.com"))
	repo.add(waitingAccount("dave@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.Next("alice@example.com")
	require.NoError(t, err)

	// alice 换上 carol，bob 配上 dave
	assert.Equal(t, "carol@example.com", repo.get("alice@example.com").PartnerHandle)
	assert.Equal(t, "alice@example.com", repo.get("carol@example.com").PartnerHandle)
	assert.Equal(t, "dave@example.com", repo.get("bob@example.com").PartnerHandle)
	assert.Equal(t, "bob@example.com", repo.get("dave@example.com").PartnerHandle)

	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindNexted, kinds["alice@example.com"])
	assert.Equal(t, notify.KindBeenNexted, kinds["bob@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["carol@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["dave@example.com"])
	assert.Equal(t, constants.NextEvent, out.Event)
	// next 不改变活跃人数和消息数
	assert.Zero(t, out.ActiveDelta)
	assert.Zero(t, out.MessagesDelta)
}

func TestNextWithOnlyTwoInPool(t *testing.T) {
	// 池子里只有 alice 和 bob：next 放宽限制后两人重新配对
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(bob)
	repo.add(alice)
	svc := newTestService(repo, nil)

	out, err := svc.Next("alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", repo.get("alice@example.com").PartnerHandle)
	assert.Equal(t, "alice@example.com", repo.get("bob@example.com").PartnerHandle)

	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindNexted, kinds["alice@example.com"])
	assert.Equal(t, notify.KindBeenNexted, kinds["bob@example.com"])
	assert.Len(t, out.Notices, 2)
}

func TestNextGuards(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "stopped@example.com"})
	repo.add(waitingAccount("single@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.Next("stopped@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindNotStarted, out.Notices[0].Kind)

	out, err = svc.Next("single@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindNotChatting, out.Notices[0].Kind)
}

func TestRelayMessageDelivered(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(alice)
	repo.add(bob)
	svc := newTestService(repo, fakeConnectivity{"bob@example.com": true})

	out, err := svc.RelayMessage("alice@example.com", "hello", false)
	require.NoError(t, err)

	require.NotNil(t, out.Relay)
	assert.Equal(t, "bob@example.com", out.Relay.To)
	assert.Equal(t, "hello", out.Relay.Body)
	assert.False(t, out.Relay.Me)
	assert.Equal(t, int64(1), out.MessagesDelta)
	assert.Equal(t, constants.MessageEvent, out.Event)
	assert.Empty(t, out.Notices)
}

func TestRelayMeMessage(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(alice)
	repo.add(bob)
	svc := newTestService(repo, nil)

	out, err := svc.RelayMessage("alice@example.com", "waves", true)
	require.NoError(t, err)
	require.NotNil(t, out.Relay)
	assert.True(t, out.Relay.Me)
	assert.Equal(t, constants.MeEvent, out.Event)
}

func TestRelayMessageNonReciprocal(t *testing.T) {
	// alice 指向 bob，但 bob 已经指向别人：链接只剩单向，不能送达
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "carol@example.com"
	repo.add(alice)
	repo.add(bob)
	svc := newTestService(repo, nil)

	out, err := svc.RelayMessage("alice@example.com", "hello", false)
	require.NoError(t, err)

	assert.Nil(t, out.Relay)
	assert.Zero(t, out.MessagesDelta)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindUndeliverable, out.Notices[0].Kind)
}

func TestRelayMessagePartnerDisconnected(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(alice)
	repo.add(bob)
	svc := newTestService(repo, fakeConnectivity{"bob@example.com": false})

	out, err := svc.RelayMessage("alice@example.com", "hello", false)
	require.NoError(t, err)

	assert.Nil(t, out.Relay)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindUndeliverable, out.Notices[0].Kind)
}

func TestRelayMessageGuards(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "stopped@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.RelayMessage("stopped@example.com", "hello", false)
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindNotStarted, out.Notices[0].Kind)
}

func TestSetAvailableIgnoresUnregistered(t *testing.T) {
	svc := newTestService(newFakeAccountRepo(), nil)
	out, err := svc.SetAvailable("ghost@example.com", true)
	require.NoError(t, err)
	assert.Empty(t, out.Notices)
	assert.Empty(t, out.Event)
}

func TestSetAvailableNoopWhenNotStarted(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.SetAvailable("alice@example.com", true)
	require.NoError(t, err)
	assert.Empty(t, out.Event)
	assert.False(t, repo.get("alice@example.com").Available)
}

func TestSetAvailableNoopWhenUnchanged(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(waitingAccount("alice@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.SetAvailable("alice@example.com", true)
	require.NoError(t, err)
	assert.Empty(t, out.Event)
	assert.Zero(t, out.ActiveDelta)
}

func TestSetAvailableOnlinePairs(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(waitingAccount("bob@example.com"))
	offline := waitingAccount("alice@example.com")
	offline.Available = false
	repo.add(offline)
	svc := newTestService(repo, nil)

	out, err := svc.SetAvailable("alice@example.com", true)
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", repo.get("alice@example.com").PartnerHandle)
	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindChatting, kinds["alice@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["bob@example.com"])
	assert.Equal(t, constants.AvailableEvent, out.Event)
	assert.Equal(t, int64(1), out.ActiveDelta)
}

func TestSetAvailableOfflineRepairsPartner(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	bob := waitingAccount("bob@example.com")
	alice.PartnerHandle = "bob@example.com"
	bob.PartnerHandle = "alice@example.com"
	repo.add(bob)
	repo.add(alice)
	repo.add(waitingAccount("carol@example.com"))
	svc := newTestService(repo, nil)

	out, err := svc.SetAvailable("alice@example.com", false)
	require.NoError(t, err)

	assert.False(t, repo.get("alice@example.com").Available)
	assert.Empty(t, repo.get("alice@example.com").PartnerHandle)
	assert.Equal(t, "carol@example.com", repo.get("bob@example.com").PartnerHandle)

	kinds := kindsByHandle(out)
	assert.Equal(t, notify.KindBeenNexted, kinds["bob@example.com"])
	assert.Equal(t, notify.KindChatting, kinds["carol@example.com"])
	assert.Equal(t, constants.UnavailableEvent, out.Event)
	assert.Equal(t, int64(-1), out.ActiveDelta)
}

func TestWho(t *testing.T) {
	repo := newFakeAccountRepo()
	alice := waitingAccount("alice@example.com")
	alice.PartnerHandle = "bob@example.com"
	repo.add(alice)
	repo.add(model.Account{Handle: "carol@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.Who("alice@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindWho, out.Notices[0].Kind)
	assert.True(t, out.Notices[0].HasPartner)
	assert.Equal(t, constants.WhoEvent, out.Event)

	out, err = svc.Who("carol@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.False(t, out.Notices[0].HasPartner)

	_, err = svc.Who("ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestRecentPartnerCapFromConfig(t *testing.T) {
	conf := config.GetConfig()
	prev := conf.StrangerConfig.RecentPartnerCap
	conf.StrangerConfig.RecentPartnerCap = 1
	t.Cleanup(func() { conf.StrangerConfig.RecentPartnerCap = prev })

	repo := newFakeAccountRepo()
	repo.add(waitingAccount("bob@example.com"))
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	_, err := svc.Start("alice@example.com")
	require.NoError(t, err)
	_, err = svc.Next("alice@example.com")
	require.NoError(t, err)

	// 配置把保留个数压到 1，历史列表不超限
	recent := repo.get("alice@example.com").RecentPartnerList()
	assert.LessOrEqual(t, len(recent), 1)
}

func TestHelp(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.add(model.Account{Handle: "alice@example.com"})
	svc := newTestService(repo, nil)

	out, err := svc.Help("alice@example.com")
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, notify.KindHelp, out.Notices[0].Kind)
	assert.Equal(t, constants.HelpEvent, out.Event)
}
