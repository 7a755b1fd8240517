package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound 键不存在
var ErrKeyNotFound = errors.New("key not found")

// KV 异步键值存储：每个键保存一段不透明的字节
type KV interface {
	// Get 读取键对应的值，不存在时返回 ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 写入或覆盖键对应的值
	Set(ctx context.Context, key string, value []byte) error
	// Remove 删除键，键不存在时不报错
	Remove(ctx context.Context, key string) error
	Close() error
}
