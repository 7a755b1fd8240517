package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/repository"
)

// Persister 组合适配器与写队列，供存储层使用
type Persister struct {
	adapter *Adapter
	writer  *Writer
}

// Option 持久化选项
type Option func(*options)

type options struct {
	saveTimeout time.Duration
	now         func() time.Time
}

// WithSaveTimeout 单次写入超时
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) { o.saveTimeout = d }
}

// WithClock 迁移时使用的时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New 创建持久化组件并启动写队列
func New(kv repository.KV, key string, logger *zap.Logger, opts ...Option) *Persister {
	o := options{saveTimeout: 5 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	adapter := NewAdapter(kv, key, logger)
	adapter.now = o.now

	return &Persister{
		adapter: adapter,
		writer:  NewWriter(adapter.Save, o.saveTimeout, logger),
	}
}

// Load 读取已保存的文档，迁移过的文档会立即写回当前版本
func (p *Persister) Load(ctx context.Context) (*models.Document, bool) {
	doc, migrated, ok := p.adapter.load(ctx)
	if ok && migrated {
		p.writer.Save(models.NewDocument(doc.Cars))
	}
	return doc, ok
}

// Save 提交快照
func (p *Persister) Save(doc *models.Document) {
	p.writer.Save(doc)
}

// Flush 等待已提交的快照写出
func (p *Persister) Flush(ctx context.Context) error {
	return p.writer.Flush(ctx)
}

// Close 写出剩余快照并停止写队列，不关闭底层存储
func (p *Persister) Close(ctx context.Context) error {
	return p.writer.Close(ctx)
}

// Stats 写队列统计
func (p *Persister) Stats() WriterStats {
	return p.writer.Stats()
}
