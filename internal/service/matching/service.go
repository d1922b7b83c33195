// Package matching 实现配对引擎
// 从等待池（started && available && 未配对）里给账号挑选对象，
// 最久等待者优先，并尽量避开刚聊过的对象
package matching

import (
	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// Service 配对引擎
type Service struct {
	accountRepo repository.AccountRepository
}

// NewMatchingService 创建配对引擎实例
func NewMatchingService(accountRepo repository.AccountRepository) *Service {
	return &Service{accountRepo: accountRepo}
}

// FindPartner 给 alice 找一个配对对象
// excludeHandle 是 alice 上一个配对对象，近期聊过的对象也在避开之列。
// 池子里只剩唯一一个候选并且恰好是被避开的对象时，放宽限制配给它：
// 有人聊总好过两个人各自干等。找不到返回 (nil, nil)
func (s *Service) FindPartner(alice *model.Account, excludeHandle string) (*model.Account, error) {
	excluded := map[string]bool{alice.Handle: true}
	if excludeHandle != "" {
		excluded[excludeHandle] = true
	}
	for _, h := range alice.RecentPartnerList() {
		excluded[h] = true
	}

	var (
		cursor        repository.Cursor
		firstExcluded *model.Account
		total         int
	)
	for {
		candidates, err := s.accountRepo.QueryWaiting(true, cursor, constants.QUERY_PAGE_SIZE)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			carol := &candidates[i]
			if carol.Handle == alice.Handle {
				continue
			}
			total++
			if !excluded[carol.Handle] {
				return carol, nil
			}
			if firstExcluded == nil {
				firstExcluded = carol
			}
		}
		if len(candidates) < constants.QUERY_PAGE_SIZE {
			break
		}
		cursor = repository.After(&candidates[len(candidates)-1])
	}

	// 唯一候选恰好被避开时放宽限制
	if total == 1 && firstExcluded != nil {
		zap.L().Info("only candidate is a recent partner, relaxing exclusion",
			zap.String("handle", alice.Handle),
			zap.String("partner", firstExcluded.Handle))
		return firstExcluded, nil
	}
	return nil, nil
}
