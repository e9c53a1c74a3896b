package service

import (
	"errors"
)

// ErrUnauthorized 缺少或无效的用户身份
var ErrUnauthorized = errors.New("usuário não autenticado")

// ValidationError 输入校验失败，Fields 为字段级错误信息
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建不带字段信息的校验错误
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// FieldError 创建单字段校验错误
func FieldError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

// NotFoundError 资源不存在或不属于当前用户
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// AsValidationError 取出校验错误
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// AsNotFoundError 取出资源不存在错误
func AsNotFoundError(err error) (*NotFoundError, bool) {
	var n *NotFoundError
	ok := errors.As(err, &n)
	return n, ok
}
