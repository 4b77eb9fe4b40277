// Package errors 存放跨存储实现共享的哨兵错误。
// gorm 与 mongo 两套 Repository 都把各自的"未找到"翻译成这里的错误，
// Service 层只需判断一次。
package errors

import "errors"

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("记录不存在")

// ErrStoreUnavailable 存储不可用（连接失败或未初始化）
var ErrStoreUnavailable = errors.New("存储服务不可用")
