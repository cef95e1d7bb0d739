package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 持仓不存在
	ErrNotFound = errors.New("position not found")
	// ErrConflict 乐观锁版本冲突，保存未生效
	ErrConflict = errors.New("position version conflict")
)

// ValidationError 交易事件字段非法，重投无法修复
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid trade event: %s %s", e.Field, e.Reason)
}

// IsValidationError 判断错误链中是否包含 ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
