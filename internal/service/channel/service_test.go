package channel

import (
	"context"
	"strconv"
	"testing"
	"time"

	"stranger_chat_server/internal/infrastructure/task"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeChannelRepo 内存版通道仓库
// conflictsLeft 控制 Create 先冲突几次，模拟 ID 撞唯一索引
type fakeChannelRepo struct {
	channels      map[string]time.Time // clientId -> 创建时间
	conflictsLeft int
	deleteCalls   int
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[string]time.Time)}
}

func (f *fakeChannelRepo) Create(clientId string) error {
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return gorm.ErrDuplicatedKey
	}
	if _, ok := f.channels[clientId]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.channels[clientId] = time.Now()
	return nil
}

func (f *fakeChannelRepo) Exists(clientId string) (bool, error) {
	_, ok := f.channels[clientId]
	return ok, nil
}

func (f *fakeChannelRepo) DeleteByClientId(clientId string) error {
	delete(f.channels, clientId)
	return nil
}

func (f *fakeChannelRepo) FindPage(afterId uint, limit int) ([]model.Channel, error) {
	return nil, nil
}

func (f *fakeChannelRepo) DeleteExpiredBatch(before time.Time, limit int) (int64, error) {
	f.deleteCalls++
	var deleted int64
	for clientId, createdAt := range f.channels {
		if deleted == int64(limit) {
			break
		}
		if createdAt.Before(before) {
			delete(f.channels, clientId)
			deleted++
		}
	}
	return deleted, nil
}

func newTestChannel() (*Service, *fakeChannelRepo) {
	repo := newFakeChannelRepo()
	return NewChannelService(repo, task.NewQueue(0, 0)), repo
}

func TestCreateChannel(t *testing.T) {
	svc, repo := newTestChannel()

	clientId, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, clientId)

	ok, err := svc.Exists(context.Background(), clientId)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, repo.channels, 1)
}

func TestCreateChannelRetriesOnConflict(t *testing.T) {
	svc, repo := newTestChannel()
	repo.conflictsLeft = constants.NUM_RETRIES - 1

	clientId, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, clientId)
}

func TestCreateChannelExhaustsRetries(t *testing.T) {
	svc, repo := newTestChannel()
	repo.conflictsLeft = constants.NUM_RETRIES

	_, err := svc.Create(context.Background())
	require.Error(t, err)
	assert.Equal(t, errorx.CodeTransientStore, errorx.GetCode(err))
}

func TestDestroyChannelIdempotent(t *testing.T) {
	svc, _ := newTestChannel()
	ctx := context.Background()

	clientId, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, clientId))
	ok, err := svc.Exists(ctx, clientId)
	require.NoError(t, err)
	assert.False(t, ok)

	// 断开事件重复送达，第二次销毁同样成功
	require.NoError(t, svc.Destroy(ctx, clientId))
}

func TestFlushExpired(t *testing.T) {
	svc, repo := newTestChannel()
	ctx := context.Background()

	expired := time.Now().Add(-constants.CHANNEL_TTL - time.Hour)
	repo.channels["old-1"] = expired
	repo.channels["old-2"] = expired
	repo.channels["fresh"] = time.Now()

	svc.FlushExpired(ctx)

	assert.NotContains(t, repo.channels, "old-1")
	assert.NotContains(t, repo.channels, "old-2")
	assert.Contains(t, repo.channels, "fresh")
}

func TestFlushExpiredResubmitsUntilDone(t *testing.T) {
	svc, repo := newTestChannel()
	ctx := context.Background()

	// 刚好一整批，批删满员后会续作一次确认删干净
	expired := time.Now().Add(-constants.CHANNEL_TTL - time.Hour)
	for i := 0; i < constants.DELETE_BATCH_SIZE; i++ {
		repo.channels["old-"+strconv.Itoa(i)] = expired
	}

	svc.FlushExpired(ctx)

	assert.GreaterOrEqual(t, repo.deleteCalls, 2)
	for clientId, createdAt := range repo.channels {
		assert.False(t, createdAt.Before(time.Now().Add(-constants.CHANNEL_TTL)), clientId)
	}
}
