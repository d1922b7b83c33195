// Package account 实现账号校验与注册
// handle 是即时通讯地址，入库前统一归一化：去资源后缀、转小写
package account

import (
	"regexp"
	"strings"

	"stranger_chat_server/internal/config"
	"stranger_chat_server/internal/dao/mysql/repository"
	"stranger_chat_server/internal/model"
	"stranger_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// localPartPattern 合法的地址本地段：字母数字开头结尾，中间允许点号
var localPartPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.]*[a-z0-9]$`)

// Service 账号服务
type Service struct {
	accountRepo repository.AccountRepository
}

// NewAccountService 创建账号服务实例
func NewAccountService(accountRepo repository.AccountRepository) *Service {
	return &Service{accountRepo: accountRepo}
}

// NormalizeHandle 归一化即时通讯地址
// 去掉资源后缀（addr/resource 只保留 addr 部分），统一小写
func NormalizeHandle(raw string) string {
	handle := strings.SplitN(raw, "/", 2)[0]
	return strings.ToLower(strings.TrimSpace(handle))
}

// ValidateHandle 归一化并校验地址
// 校验规则由配置给出：域名白名单、本地段长度区间、本地段字符集
func (s *Service) ValidateHandle(raw string) (string, error) {
	handle := NormalizeHandle(raw)
	if handle == "" {
		return "", errorx.New(errorx.CodeInvalidParam, "地址不能为空")
	}

	at := strings.LastIndex(handle, "@")
	if at <= 0 || at == len(handle)-1 {
		return "", errorx.Newf(errorx.CodeInvalidParam, "地址格式不正确: %s", handle)
	}
	local, domain := handle[:at], handle[at+1:]

	conf := config.GetConfig().StrangerConfig
	validDomain := false
	for _, d := range conf.ValidDomains {
		if domain == d {
			validDomain = true
			break
		}
	}
	if !validDomain {
		return "", errorx.Newf(errorx.CodeInvalidParam, "不支持的地址域名: %s", domain)
	}

	if len(local) < conf.MinLocalLen || len(local) > conf.MaxLocalLen {
		return "", errorx.Newf(errorx.CodeInvalidParam,
			"地址本地段长度须在 %d 到 %d 之间", conf.MinLocalLen, conf.MaxLocalLen)
	}
	if !localPartPattern.MatchString(local) || strings.Contains(local, "..") {
		return "", errorx.Newf(errorx.CodeInvalidParam, "地址本地段含非法字符: %s", local)
	}
	return handle, nil
}

// SignUp 注册账号
// 幂等：已注册的地址原样返回，created 为 false
func (s *Service) SignUp(raw string) (*model.Account, bool, error) {
	handle, err := s.ValidateHandle(raw)
	if err != nil {
		return nil, false, err
	}

	acct, created, err := s.accountRepo.GetOrCreate(handle)
	if err != nil {
		return nil, false, err
	}
	if created {
		zap.L().Info("account signed up", zap.String("handle", handle))
	}
	return acct, created, nil
}

// GetAccount 取已注册账号，未注册返回 CodeNotFound
// 这里只归一化不做完整校验：历史账号可能先于更严格的规则入库
func (s *Service) GetAccount(raw string) (*model.Account, error) {
	handle := NormalizeHandle(raw)
	if handle == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "地址不能为空")
	}
	return s.accountRepo.FindByHandle(handle)
}
