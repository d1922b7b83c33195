// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
package repository

import (
	"errors"
	"strings"

	"stranger_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// isReadOnlyError 后端存储进入只读（维护窗口）时 MySQL 返回 Error 1290
func isReadOnlyError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Error 1290") ||
		strings.Contains(msg, "read-only")
}

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 只读存储写入失败 -> CodeCapabilityUnavailable
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	if isReadOnlyError(err) {
		return errorx.Wrap(err, errorx.CodeCapabilityUnavailable, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	if isReadOnlyError(err) {
		return errorx.Wrapf(err, errorx.CodeCapabilityUnavailable, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}
