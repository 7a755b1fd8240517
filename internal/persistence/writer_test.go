package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/repository"
)

// recordingSaver 记录写入的文档，可选择阻塞第一次写入
type recordingSaver struct {
	mu      sync.Mutex
	saved   []*models.Document
	err     error
	started chan struct{}
	release chan struct{}
}

func newRecordingSaver() *recordingSaver {
	return &recordingSaver{started: make(chan struct{}, 16)}
}

func (r *recordingSaver) save(ctx context.Context, doc *models.Document) error {
	r.started <- struct{}{}
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, doc)
	return r.err
}

func (r *recordingSaver) docs() []*models.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Document(nil), r.saved...)
}

func docWith(ids ...string) *models.Document {
	cars := make([]models.Vehicle, 0, len(ids))
	for _, id := range ids {
		cars = append(cars, models.Vehicle{ID: id, Make: "M", Model: "X", Year: 2000, Fuel: models.FuelPetrol})
	}
	return models.NewDocument(cars)
}

func TestWriter_FlushWaitsForWrite(t *testing.T) {
	saver := newRecordingSaver()
	w := NewWriter(saver.save, time.Second, zap.NewNop())
	defer w.Close(context.Background())

	w.Save(docWith("1"))
	require.NoError(t, w.Flush(context.Background()))

	docs := saver.docs()
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].Cars[0].ID)
	assert.Equal(t, uint64(1), w.Stats().Written)
}

func TestWriter_FlushWithNothingPending(t *testing.T) {
	w := NewWriter(newRecordingSaver().save, time.Second, zap.NewNop())
	defer w.Close(context.Background())

	assert.NoError(t, w.Flush(context.Background()))
}

func TestWriter_CoalescesPendingSnapshots(t *testing.T) {
	saver := newRecordingSaver()
	saver.release = make(chan struct{})
	w := NewWriter(saver.save, time.Second, zap.NewNop())
	defer w.Close(context.Background())

	w.Save(docWith("1"))
	<-saver.started

	w.Save(docWith("1", "2"))
	w.Save(docWith("1", "2", "3"))
	close(saver.release)

	require.NoError(t, w.Flush(context.Background()))

	docs := saver.docs()
	require.Len(t, docs, 2, "the middle snapshot is superseded")
	assert.Len(t, docs[0].Cars, 1)
	assert.Len(t, docs[1].Cars, 3, "the latest snapshot wins")

	stats := w.Stats()
	assert.Equal(t, uint64(2), stats.Written)
	assert.Equal(t, uint64(1), stats.Coalesced)
}

func TestWriter_FailureIsReportedAndRetriedByNextSnapshot(t *testing.T) {
	saver := newRecordingSaver()
	saver.err = errors.New("quota exceeded")
	w := NewWriter(saver.save, time.Second, zap.NewNop())
	defer w.Close(context.Background())

	w.Save(docWith("1"))
	assert.Error(t, w.Flush(context.Background()))
	assert.Equal(t, uint64(1), w.Stats().Failed)

	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	w.Save(docWith("1", "2"))
	assert.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, uint64(1), w.Stats().Written)
}

func TestWriter_FlushHonoursContext(t *testing.T) {
	saver := newRecordingSaver()
	saver.release = make(chan struct{})
	w := NewWriter(saver.save, time.Second, zap.NewNop())

	w.Save(docWith("1"))
	<-saver.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)

	close(saver.release)
	assert.NoError(t, w.Close(context.Background()))
}

func TestWriter_CloseDrainsAndDropsLaterSnapshots(t *testing.T) {
	saver := newRecordingSaver()
	w := NewWriter(saver.save, time.Second, zap.NewNop())

	w.Save(docWith("1"))
	require.NoError(t, w.Close(context.Background()))
	require.Len(t, saver.docs(), 1)

	w.Save(docWith("1", "2"))
	assert.NoError(t, w.Flush(context.Background()))
	assert.Len(t, saver.docs(), 1)
	assert.NoError(t, w.Close(context.Background()), "close is idempotent")
}

func TestPersister_SaveThenLoad(t *testing.T) {
	kv := repository.NewMemoryKV()
	p := New(kv, DefaultKey, zap.NewNop(), WithSaveTimeout(time.Second), WithClock(func() time.Time { return fixedNow }))
	defer p.Close(context.Background())

	_, ok := p.Load(context.Background())
	assert.False(t, ok)

	doc := sampleDocument()
	p.Save(doc)
	require.NoError(t, p.Flush(context.Background()))

	loaded, ok := p.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, doc, loaded)
	assert.Equal(t, uint64(1), p.Stats().Written)
}

func TestPersister_WritesBackMigratedDocument(t *testing.T) {
	kv := repository.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), DefaultKey, []byte(`[`+legacyCar+`]`)))

	p := New(kv, DefaultKey, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))
	defer p.Close(context.Background())

	migrated, ok := p.Load(context.Background())
	require.True(t, ok)
	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, uint64(1), p.Stats().Written)

	raw, err := kv.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":1`)

	// 之后的加载不再迁移，时钟变化也不影响内容
	later := New(kv, DefaultKey, zap.NewNop(), WithClock(func() time.Time { return fixedNow.AddDate(1, 0, 0) }))
	defer later.Close(context.Background())

	reloaded, ok := later.Load(context.Background())
	require.True(t, ok)
	require.NoError(t, later.Flush(context.Background()))
	assert.Equal(t, migrated, reloaded)
	assert.Equal(t, uint64(0), later.Stats().Written)
}

func TestPersister_CurrentDocumentIsNotRewritten(t *testing.T) {
	kv := repository.NewMemoryKV()
	p := New(kv, DefaultKey, zap.NewNop())
	defer p.Close(context.Background())

	p.Save(sampleDocument())
	require.NoError(t, p.Flush(context.Background()))

	_, ok := p.Load(context.Background())
	require.True(t, ok)
	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, uint64(1), p.Stats().Written)
}
