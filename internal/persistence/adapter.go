package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/repository"
)

// DefaultKey 车辆集合默认存放的键
const DefaultKey = "car-storage"

// CorruptSuffix 损坏文档的备份键后缀
const CorruptSuffix = ".corrupt"

var (
	errCorrupt            = errors.New("corrupt document")
	errUnsupportedVersion = errors.New("unsupported document version")
)

// Adapter 把车辆集合序列化为单个 JSON 文档，读写固定的键
type Adapter struct {
	kv     repository.KV
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter 创建持久化适配器
func NewAdapter(kv repository.KV, key string, logger *zap.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{
		kv:     kv,
		key:    key,
		logger: logger.With(zap.String("component", "persistence"), zap.String("key", key)),
		now:    time.Now,
	}
}

// Key 文档所在的键
func (a *Adapter) Key() string {
	return a.key
}

// Load 读取文档，键不存在、存储不可用或文档损坏时都返回 absent，只记录日志
func (a *Adapter) Load(ctx context.Context) (*models.Document, bool) {
	doc, _, ok := a.load(ctx)
	return doc, ok
}

// load 同 Load，并报告文档是否经过了版本迁移
func (a *Adapter) load(ctx context.Context) (*models.Document, bool, bool) {
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		a.logger.Info("No stored document", zap.String("outcome", outcomeAbsent))
		loadsTotal.WithLabelValues(outcomeAbsent).Inc()
		return nil, false, false
	}
	if err != nil {
		a.logger.Error("Failed to read stored document", zap.String("outcome", outcomeUnavailable), zap.Error(err))
		loadsTotal.WithLabelValues(outcomeUnavailable).Inc()
		return nil, false, false
	}

	doc, fromVersion, err := decodeDocument(data, a.now())
	if err != nil {
		a.logger.Error("Failed to decode stored document",
			zap.String("outcome", outcomeCorrupt),
			zap.Int("size_bytes", len(data)),
			zap.Error(err),
		)
		loadsTotal.WithLabelValues(outcomeCorrupt).Inc()
		a.quarantine(ctx, data)
		return nil, false, false
	}

	migrated := fromVersion != models.SchemaVersion
	outcome := outcomeLoaded
	if migrated {
		outcome = outcomeMigrated
	}
	a.logger.Info("Stored document loaded",
		zap.String("outcome", outcome),
		zap.Int("from_version", fromVersion),
		zap.Int("cars", len(doc.Cars)),
	)
	loadsTotal.WithLabelValues(outcome).Inc()
	return doc, migrated, true
}

// quarantine 把损坏的文档移到 <key>.corrupt，原键删除后按不存在处理
func (a *Adapter) quarantine(ctx context.Context, data []byte) {
	backup := a.key + CorruptSuffix
	if err := a.kv.Set(ctx, backup, data); err != nil {
		a.logger.Warn("Failed to back up corrupt document", zap.String("backup_key", backup), zap.Error(err))
		return
	}
	if err := a.kv.Remove(ctx, a.key); err != nil {
		a.logger.Warn("Failed to remove corrupt document", zap.Error(err))
		return
	}
	a.logger.Warn("Corrupt document moved aside", zap.String("backup_key", backup))
}

// Save 用完整文档覆盖键
func (a *Adapter) Save(ctx context.Context, doc *models.Document) error {
	out := models.Document{Version: doc.Version, Cars: doc.Cars}
	if out.Version == 0 {
		out.Version = models.SchemaVersion
	}
	if out.Cars == nil {
		out.Cars = []models.Vehicle{}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// envelope 兼容三种历史布局：{"version","cars"}、{"state":{"cars"},"version"} 和裸数组
type envelope struct {
	Version *int            `json:"version"`
	Cars    json.RawMessage `json:"cars"`
	State   *struct {
		Cars json.RawMessage `json:"cars"`
	} `json:"state"`
}

// decodeDocument 解析并迁移文档，返回原始版本号
func decodeDocument(data []byte, now time.Time) (*models.Document, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("%w: empty", errCorrupt)
	}

	version := 0
	var cars json.RawMessage

	switch trimmed[0] {
	case '[':
		cars = trimmed
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		if env.Version != nil {
			version = *env.Version
		}
		cars = env.Cars
		if cars == nil && env.State != nil {
			cars = env.State.Cars
		}
	default:
		return nil, 0, fmt.Errorf("%w: not a JSON object or array", errCorrupt)
	}

	if version < 0 || version > models.SchemaVersion {
		return nil, version, fmt.Errorf("%w: %d", errUnsupportedVersion, version)
	}
	if len(cars) == 0 || bytes.Equal(cars, []byte("null")) {
		cars = json.RawMessage("[]")
	}

	if version != models.SchemaVersion {
		migrated, err := migrate(version, cars, now)
		if err != nil {
			return nil, version, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		cars = migrated
	}

	doc := &models.Document{Version: models.SchemaVersion}
	if err := json.Unmarshal(cars, &doc.Cars); err != nil {
		return nil, version, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if doc.Cars == nil {
		doc.Cars = []models.Vehicle{}
	}
	return doc, version, nil
}
