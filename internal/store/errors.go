package store

import "errors"

var (
	// ErrNotFound 车辆或记录不存在
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID ID 已存在（严格模式）
	ErrDuplicateID = errors.New("duplicate id")
	// ErrNotReady 存储尚未完成加载或已关闭
	ErrNotReady = errors.New("store not ready")
)
