package account

import (
	"testing"

	"stranger_chat_server/internal/config"
	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccountRepo 内存版账号仓库，只实现本包测试用到的路径
type fakeAccountRepo struct {
	accounts map[string]*model.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) GetOrCreate(handle string) (*model.Account, bool, error) {
	if acct, ok := f.accounts[handle]; ok {
		copied := *acct
		return &copied, false, nil
	}
	acct := &model.Account{Handle: handle}
	f.accounts[handle] = acct
	copied := *acct
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
	return nil, nil
}

func (f *fakeAccountRepo) QueryActive(cursor repository.Cursor, limit int) ([]model.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) Persist(accounts ...*model.Account) error {
	for _, acct := range accounts {
		copied := *acct
		f.accounts[acct.Handle] = &copied
	}
	return nil
}

func (f *fakeAccountRepo) CountAll() (int64, error)    { return int64(len(f.accounts)), nil }
func (f *fakeAccountRepo) CountActive() (int64, error) { return 0, nil }

func setupValidationConfig(t *testing.T) {
	t.Helper()
	conf := config.GetConfig()
	conf.StrangerConfig.ValidDomains = []string{"example.com", "gmail.com"}
	conf.StrangerConfig.MinLocalLen = 3
	conf.StrangerConfig.MaxLocalLen = 64
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeHandle("Alice@Example.COM"))
	assert.Equal(t, "alice@example.com", NormalizeHandle("alice@example.com/mobile"))
	assert.Equal(t, "alice@example.com", NormalizeHandle("  alice@example.com  "))
	assert.Equal(t, "", NormalizeHandle(""))
}

func TestValidateHandle(t *testing.T) {
	setupValidationConfig(t)
	svc := NewAccountService(newFakeAccountRepo())

	handle, err := svc.ValidateHandle("Alice.Smith@Example.com/resource")
	require.NoError(t, err)
	assert.Equal(t, "alice.smith@example.com", handle)
}

func TestValidateHandleRejects(t *testing.T) {
	setupValidationConfig(t)
	svc := NewAccountService(newFakeAccountRepo())

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no at sign", "aliceexample.com"},
		{"bad domain", "alice@evil.org"},
		{"too short local part", "al@example.com"},
		{"double dots", "ali..ce@example.com"},
		{"leading dot", ".alice@example.com"},
		{"illegal chars", "al ice@example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateHandle(tc.raw)
			require.Error(t, err)
			assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
		})
	}
}

func TestSignUpIdempotent(t *testing.T) {
	setupValidationConfig(t)
	repo := newFakeAccountRepo()
	svc := NewAccountService(repo)

	acct, created, err := svc.SignUp("Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice@example.com", acct.Handle)

	again, created, err := svc.SignUp("alice@example.com/mobile")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "alice@example.com", again.Handle)
}

func TestGetAccountNotFound(t *testing.T) {
	svc := NewAccountService(newFakeAccountRepo())
	_, err := svc.GetAccount("nobody@example.com")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}
