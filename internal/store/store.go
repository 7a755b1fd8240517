package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/state"
)

// Persister 存储层依赖的持久化能力
type Persister interface {
	Load(ctx context.Context) (*models.Document, bool)
	Save(doc *models.Document)
	Flush(ctx context.Context) error
}

// errUnchanged 修改函数没有改动任何数据
var errUnchanged = errors.New("unchanged")

// Option 存储选项
type Option func(*Store)

// WithSeed 设置首次启动时的车辆列表，nil 表示从空集合开始
func WithSeed(cars []models.Vehicle) Option {
	return func(s *Store) { s.cars = models.CloneVehicles(cars) }
}

// WithStrictIDs 是否拒绝重复的车辆 ID 和记录 ID
func WithStrictIDs(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// Store 车辆集合的唯一数据源，所有修改都经过这里
type Store struct {
	mu        sync.RWMutex
	cars      []models.Vehicle
	strict    bool
	persister Persister
	logger    *zap.Logger
	machine   *state.Machine

	ready     chan struct{}
	readyOnce sync.Once

	subsMu     sync.Mutex
	subs       map[chan Change]struct{}
	subsClosed bool
}

// New 创建存储，初始内容为种子列表，需调用 Hydrate 后才能修改
func New(persister Persister, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		cars:      DefaultSeed(),
		strict:    true,
		persister: persister,
		logger:    logger.With(zap.String("component", "store")),
		ready:     make(chan struct{}),
		subs:      make(map[chan Change]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = state.NewMachine(func(from, to string) {
		s.logger.Info("Store state changed", zap.String("from", from), zap.String("to", to))
	})
	return s
}

// Hydrate 读取已保存的文档替换种子列表；没有文档时保留种子
func (s *Store) Hydrate(ctx context.Context) error {
	if err := s.machine.Trigger(state.EventHydrate); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	doc, ok := s.persister.Load(ctx)

	s.mu.Lock()
	if err := s.machine.Trigger(state.EventHydrated); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("hydrate: %w", err)
	}
	if ok {
		s.cars = doc.Cars
		if s.cars == nil {
			s.cars = []models.Vehicle{}
		}
	}
	count := len(s.cars)
	s.publish(Change{Op: OpHydrated})
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("Store hydrated", zap.Bool("from_storage", ok), zap.Int("cars", count))
	return nil
}

// Ready 进入 ready 状态时关闭的通道
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// State 当前生命周期状态
func (s *Store) State() string {
	return s.machine.Current()
}

// Dispose 停止接受修改，等待已提交的快照写出并关闭订阅
func (s *Store) Dispose(ctx context.Context) error {
	s.mu.Lock()
	err := s.machine.Trigger(state.EventDispose)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("dispose: %w", err)
	}

	s.closeSubscribers()

	if err := s.persister.Flush(ctx); err != nil {
		return fmt.Errorf("flush on dispose: %w", err)
	}
	return nil
}

// mutate 在写锁内执行修改，成功后提交快照并发布变更
func (s *Store) mutate(fn func() (Change, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Is(state.StateReady) {
		return ErrNotReady
	}

	change, err := fn()
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	s.persister.Save(models.NewDocument(s.cars))
	s.publish(change)
	return nil
}

// indexesOf 所有匹配 ID 的车辆下标（宽松模式下可能有多个）
func (s *Store) indexesOf(id string) []int {
	var idx []int
	for i := range s.cars {
		if s.cars[i].ID == id {
			idx = append(idx, i)
		}
	}
	return idx
}

// Vehicles 获取全部车辆
func (s *Store) Vehicles() []models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneVehicles(s.cars)
}

// VehicleByID 按 ID 获取车辆
func (s *Store) VehicleByID(id string) (*models.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.cars {
		if s.cars[i].ID == id {
			v := s.cars[i].Clone()
			return &v, true
		}
	}
	return nil, false
}

// AddVehicle 校验后追加到集合末尾
func (s *Store) AddVehicle(v models.Vehicle) error {
	if err := models.Validate(&v); err != nil {
		return err
	}

	return s.mutate(func() (Change, error) {
		if s.strict {
			if len(s.indexesOf(v.ID)) > 0 {
				return Change{}, fmt.Errorf("vehicle %s: %w", v.ID, ErrDuplicateID)
			}
			if kind, id, dup := models.DuplicateRecordID(&v); dup {
				return Change{}, fmt.Errorf("%s record %s: %w", kind, id, ErrDuplicateID)
			}
		}

		s.cars = append(s.cars, v.Clone())
		return Change{Op: OpVehicleAdded, VehicleID: v.ID}, nil
	})
}

// RemoveVehicle 删除所有匹配 ID 的车辆及其历史记录，不存在时返回 false
func (s *Store) RemoveVehicle(id string) (bool, error) {
	removed := false
	err := s.mutate(func() (Change, error) {
		kept := make([]models.Vehicle, 0, len(s.cars))
		for _, v := range s.cars {
			if v.ID == id {
				removed = true
				continue
			}
			kept = append(kept, v)
		}
		if !removed {
			return Change{}, errUnchanged
		}
		s.cars = kept
		return Change{Op: OpVehicleRemoved, VehicleID: id}, nil
	})
	return removed, err
}

// UpdateVehicle 合并更新车辆属性，历史记录不变；只校验本次修改的字段
func (s *Store) UpdateVehicle(id string, upd models.VehicleUpdate) error {
	fields := upd.Fields()
	return s.mutate(func() (Change, error) {
		idx := s.indexesOf(id)
		if len(idx) == 0 {
			return Change{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}

		updated := make([]models.Vehicle, len(idx))
		for n, i := range idx {
			v := s.cars[i].Clone()
			upd.Apply(&v)
			if err := models.ValidateFields(&v, fields...); err != nil {
				return Change{}, err
			}
			updated[n] = v
		}
		for n, i := range idx {
			s.cars[i] = updated[n]
		}
		return Change{Op: OpVehicleUpdated, VehicleID: id}, nil
	})
}

// Clear 清空集合
func (s *Store) Clear() error {
	return s.mutate(func() (Change, error) {
		s.cars = []models.Vehicle{}
		return Change{Op: OpCleared}, nil
	})
}
