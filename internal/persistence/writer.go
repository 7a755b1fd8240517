package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
)

// SaveFunc 写入完整文档
type SaveFunc func(ctx context.Context, doc *models.Document) error

// WriterStats 写队列统计
type WriterStats struct {
	Written   uint64 `json:"written"`
	Failed    uint64 `json:"failed"`
	Coalesced uint64 `json:"coalesced"`
}

// Writer 单协程写队列：同一时间只有一次写入，尚未写出的快照会被更新的快照替换
type Writer struct {
	save    SaveFunc
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	pending    *models.Document
	pendingSeq uint64
	accepted   uint64 // 已接收的快照序号
	processed  uint64 // 已处理（成功或失败）的最大序号
	progress   chan struct{}
	lastErr    error
	stats      WriterStats
	closed     bool

	notify    chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWriter 创建并启动写队列
func NewWriter(save SaveFunc, timeout time.Duration, logger *zap.Logger) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Writer{
		save:     save,
		timeout:  timeout,
		logger:   logger.With(zap.String("component", "writer")),
		progress: make(chan struct{}),
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Save 提交快照，立即返回
func (w *Writer) Save(doc *models.Document) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("Snapshot dropped after close")
		return
	}
	if w.pending != nil {
		w.stats.Coalesced++
		coalescedTotal.Inc()
	}
	w.accepted++
	w.pending = doc
	w.pendingSeq = w.accepted
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Flush 等待调用前提交的所有快照处理完毕，返回最近一次写入的错误
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.accepted
	for w.processed < target {
		ch := w.progress
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		w.mu.Lock()
	}
	err := w.lastErr
	w.mu.Unlock()
	return err
}

// Close 写出剩余快照并停止写协程
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)

	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Stats 获取统计
func (w *Writer) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.notify:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		doc, seq := w.pending, w.pendingSeq
		w.pending = nil
		w.mu.Unlock()

		if doc == nil {
			return
		}
		w.write(doc, seq)
	}
}

func (w *Writer) write(doc *models.Document, seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	err := w.save(ctx, doc)
	writeDuration.Observe(time.Since(start).Seconds())

	w.mu.Lock()
	if err != nil {
		w.stats.Failed++
		w.lastErr = err
	} else {
		w.stats.Written++
		w.lastErr = nil
	}
	w.processed = seq
	close(w.progress)
	w.progress = make(chan struct{})
	w.mu.Unlock()

	if err != nil {
		writesTotal.WithLabelValues("error").Inc()
		w.logger.Error("Failed to write document",
			zap.Int("cars", len(doc.Cars)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	writesTotal.WithLabelValues("ok").Inc()
	w.logger.Debug("Document written",
		zap.Int("cars", len(doc.Cars)),
		zap.Duration("duration", time.Since(start)),
	)
}
