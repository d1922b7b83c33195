// Package admin 提供管理端认证与运维操作
// 管理员账号在配置里给出（bcrypt 口令散列），登录换取 JWT
package admin

import (
	"context"

	"stranger_chat_server/internal/config"
	"stranger_chat_server/internal/service/counter"
	"stranger_chat_server/pkg/constants"
	"stranger_chat_server/pkg/errorx"
	"stranger_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service 管理端服务
type Service struct {
	counter *counter.Service
}

// NewAdminService 创建管理端服务实例
func NewAdminService(counterSvc *counter.Service) *Service {
	return &Service{counter: counterSvc}
}

// Login 管理员登录
// 校验用户名和 bcrypt 口令散列，通过后签发 Access Token
func (s *Service) Login(username, password string) (string, error) {
	conf := config.GetConfig().AdminConfig
	if username != conf.Username {
		return "", errorx.New(errorx.CodeUnauthorized, "用户名或密码错误")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(conf.PasswordHash), []byte(password)); err != nil {
		return "", errorx.New(errorx.CodeUnauthorized, "用户名或密码错误")
	}

	token, err := jwt.GenerateAccessToken(username)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "签发 Token 失败")
	}
	zap.L().Info("admin logged in", zap.String("username", username))
	return token, nil
}

// validCounter 运维操作只允许动已知的计数器
func validCounter(name string) bool {
	switch name {
	case constants.NumUsersKey, constants.NumActiveUsersKey, constants.NumMessagesKey:
		return true
	}
	return false
}

// SetShardCount 把指定计数器的分片数调到目标值，只增不减
func (s *Service) SetShardCount(name string, num int) error {
	if !validCounter(name) {
		return errorx.Newf(errorx.CodeInvalidParam, "未知的计数器: %s", name)
	}
	return s.counter.SetShardCount(name, num)
}

// ResetCounter 把指定计数器清零
func (s *Service) ResetCounter(ctx context.Context, name string) error {
	if !validCounter(name) {
		return errorx.Newf(errorx.CodeInvalidParam, "未知的计数器: %s", name)
	}
	s.counter.Reset(ctx, name)
	return nil
}
