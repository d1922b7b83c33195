package repository

import (
	"errors"
	"strings"

	"stranger_chat_server/internal/model"

	"gorm.io/gorm"
)

// accountRepository AccountRepository 的 GORM 实现
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓库实例
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// GetOrCreate 按 handle 取或建账号
// 并发创建同一 handle 时靠唯一索引兜底：插入冲突后回头再查一次
func (r *accountRepository) GetOrCreate(handle string) (*model.Account, bool, error) {
	var acct model.Account
	err := r.db.Where("handle = ?", handle).First(&acct).Error
	if err == nil {
		return &acct, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, wrapDBErrorf(err, "查询账号失败 handle=%s", handle)
	}

	acct = model.Account{Handle: handle}
	createErr := r.db.Create(&acct).Error
	if createErr == nil {
		return &acct, true, nil
	}

	// 可能是并发创建导致的唯一索引冲突，重查一次
	if err := r.db.Where("handle = ?", handle).First(&acct).Error; err == nil {
		return &acct, false, nil
	}
	return nil, false, wrapDBErrorf(createErr, "创建账号失败 handle=%s", handle)
}

// FindByHandle 按 handle 查找账号
func (r *accountRepository) FindByHandle(handle string) (*model.Account, error) {
	var acct model.Account
	if err := r.db.Where("handle = ?", handle).First(&acct).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询账号失败 handle=%s", handle)
	}
	return &acct, nil
}

// QueryWaiting 分页查询等待池，最久未活跃者排在最前
// 游标用 (last_activity, handle) 二元组避免同一时间戳下的跳行或重复
func (r *accountRepository) QueryWaiting(excludeChatting bool, cursor Cursor, limit int) ([]model.Account, error) {
	query := r.db.Where("started = ? AND available = ?", true, true)
	if excludeChatting {
		query = query.Where("partner_handle = ?", "")
	}
	if !cursor.IsZero() {
		query = query.Where(
			"(last_activity > ?) OR (last_activity = ? AND handle > ?)",
			cursor.LastActivity, cursor.LastActivity, cursor.Handle,
		)
	}

	var accounts []model.Account
	err := query.Order("last_activity ASC, handle ASC").Limit(limit).Find(&accounts).Error
	if err != nil {
		return nil, wrapDBError(err, "查询等待池失败")
	}
	return accounts, nil
}

// QueryActive 分页查询活跃账号
func (r *accountRepository) QueryActive(cursor Cursor, limit int) ([]model.Account, error) {
	query := r.db.Where("started = ? AND available = ?", true, true)
	if !cursor.IsZero() {
		query = query.Where(
			"(last_activity > ?) OR (last_activity = ? AND handle > ?)",
			cursor.LastActivity, cursor.LastActivity, cursor.Handle,
		)
	}

	var accounts []model.Account
	err := query.Order("last_activity ASC, handle ASC").Limit(limit).Find(&accounts).Error
	if err != nil {
		return nil, wrapDBError(err, "查询活跃账号失败")
	}
	return accounts, nil
}

// Persist 逐个独立持久化账号
// 不放在同一事务里：配对双方是两条独立记录，一侧失败不回滚另一侧，
// 失败汇总后上抛由调用方决定如何补偿
func (r *accountRepository) Persist(accounts ...*model.Account) error {
	var errs []error
	for _, acct := range accounts {
		if acct == nil {
			continue
		}
		if err := r.db.Save(acct).Error; err != nil {
			errs = append(errs, wrapDBErrorf(err, "持久化账号失败 handle=%s", acct.Handle))
		}
	}
	return errors.Join(errs...)
}

// CountAll 账号总数
func (r *accountRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Account{}).Count(&count).Error; err != nil {
		return 0, wrapDBError(err, "统计账号总数失败")
	}
	return count, nil
}

// CountActive 活跃账号数
func (r *accountRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.Account{}).
		Where("started = ? AND available = ?", true, true).
		Count(&count).Error
	if err != nil {
		return 0, wrapDBError(err, "统计活跃账号数失败")
	}
	return count, nil
}

// IsConflict 判断错误是否为唯一索引冲突（MySQL 1062）
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry")
}
