package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 数据加载错误：DATA_LOAD（目录 CSV、评分 CSV）
//   - 偏好编码错误：ENCODING（索引未加载、维度不一致）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DATA_LOAD"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "cf"）
	Err     error  // 底层原因，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 暴露底层原因，便于 errors.Is / errors.As。
func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewDataLoadError 表示目录或评分数据不可读、缺列或无法解码。
func NewDataLoadError(module, message string, err error) *DomainError {
	return WrapDomainError(module, ErrorCodeDataLoad, message, err)
}

// NewEncodingError 表示偏好无法编码（索引未加载等）。
func NewEncodingError(message string, err error) *DomainError {
	return WrapDomainError(ModuleEncoder, ErrorCodeEncoding, message, err)
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	ErrorCodeDataLoad = "DATA_LOAD" // 数据加载失败
	ErrorCodeEncoding = "ENCODING"  // 偏好编码失败
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleCatalog   = "catalog"   // 目录特征索引
	ModuleEncoder   = "encoder"   // 偏好编码
	ModuleCF        = "cf"        // 协同过滤索引
	ModuleRecommend = "recommend" // 推荐编排
	ModuleImagery   = "imagery"   // 封面图查询
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsDataLoad 检查错误是否为 DATA_LOAD
func IsDataLoad(err error) bool { return hasCode(err, ErrorCodeDataLoad) }

// IsEncoding 检查错误是否为 ENCODING
func IsEncoding(err error) bool { return hasCode(err, ErrorCodeEncoding) }
