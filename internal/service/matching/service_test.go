package matching

import (
	"testing"

	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWaitingPool 内存版等待池，waiting 顺序即最久等待优先的顺序
type fakeWaitingPool struct {
	waiting []model.Account
}

func (f *fakeWaitingPool) QueryWaiting(excludeChatting bool, cursor repository.Cursor, limit int) ([]model.Account, error) {
	start := 0
	if !cursor.IsZero() {
		for i := range f.waiting {
			if f.waiting[i].Handle == cursor.Handle {
				start = i + 1
				break
			}
		}
	}
	var page []model.Account
	for i := start; i < len(f.waiting) && len(page) < limit; i++ {
		acct := f.waiting[i]
		if excludeChatting && acct.HasPartner() {
			continue
		}
		page = append(page, acct)
	}
	return page, nil
}

func (f *fakeWaitingPool) GetOrCreate(handle string) (*model.Account, bool, error) {
	return nil, false, nil
}

func (f *fakeWaitingPool) FindByHandle(handle string) (*model.Account, error) {
	return nil, errorx.New(errorx.CodeNotFound, "not found")
}

func (f *fakeWaitingPool) QueryActive(cursor repository.Cursor, limit int) ([]model.Account, error) {
	return nil, nil
}

func (f *fakeWaitingPool) Persist(accounts ...*model.Account) error { return nil }
func (f *fakeWaitingPool) CountAll() (int64, error)                 { return 0, nil }
func (f *fakeWaitingPool) CountActive() (int64, error)              { return 0, nil }

func waiting(handles ...string) *fakeWaitingPool {
	pool := &fakeWaitingPool{}
	for _, h := range handles {
		pool.waiting = append(pool.waiting, model.Account{
			Handle: h, Started: true, Available: true,
		})
	}
	return pool
}

func TestFindPartnerOldestFirst(t *testing.T) {
	svc := NewMatchingService(waiting("bob@example.com", "carol@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}

	partner, err := svc.FindPartner(alice, "")
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, "bob@example.com", partner.Handle)
}

func TestFindPartnerSkipsSelf(t *testing.T) {
	svc := NewMatchingService(waiting("alice@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}

	partner, err := svc.FindPartner(alice, "")
	require.NoError(t, err)
	assert.Nil(t, partner)
}

func TestFindPartnerSkipsExcluded(t *testing.T) {
	svc := NewMatchingService(waiting("bob@example.com", "carol@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}

	partner, err := svc.FindPartner(alice, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, "carol@example.com", partner.Handle)
}

func TestFindPartnerSkipsRecentPartners(t *testing.T) {
	svc := NewMatchingService(waiting("bob@example.com", "carol@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}
	alice.PushRecentPartner("bob@example.com", 3)

	partner, err := svc.FindPartner(alice, "")
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, "carol@example.com", partner.Handle)
}

func TestFindPartnerRelaxesWhenOnlyCandidateExcluded(t *testing.T) {
	// 池子里只剩刚聊过的 bob，放宽限制配回给他
	svc := NewMatchingService(waiting("bob@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}

	partner, err := svc.FindPartner(alice, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, "bob@example.com", partner.Handle)
}

func TestFindPartnerNoRelaxWithMultipleCandidates(t *testing.T) {
	// 候选不止一个时不放宽限制，本轮宁可空手而归
	svc := NewMatchingService(waiting("bob@example.com", "carol@example.com"))
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}
	alice.PushRecentPartner("carol@example.com", 3)
	alice.PushRecentPartner("bob@example.com", 3)

	partner, err := svc.FindPartner(alice, "")
	require.NoError(t, err)
	assert.Nil(t, partner)
}

func TestFindPartnerEmptyPool(t *testing.T) {
	svc := NewMatchingService(waiting())
	alice := &model.Account{Handle: "alice@example.com", Started: true, Available: true}

	partner, err := svc.FindPartner(alice, "")
	require.NoError(t, err)
	assert.Nil(t, partner)
}
