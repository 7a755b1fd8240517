package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/store"
	"github.com/langchou/garage/pkg/ws"
)

// Broadcaster 推送变更
type Broadcaster interface {
	BroadcastChange(change interface{})
}

// VehicleService 把存储变更转发给 WebSocket 客户端
type VehicleService struct {
	logger *zap.Logger
	store  *store.Store
	wsHub  Broadcaster

	mu      sync.Mutex
	wg      sync.WaitGroup
	cancel  func()
	running bool
}

// NewVehicleService 创建车辆服务
func NewVehicleService(logger *zap.Logger, st *store.Store, wsHub Broadcaster) *VehicleService {
	return &VehicleService{
		logger: logger.With(zap.String("component", "vehicle_service")),
		store:  st,
		wsHub:  wsHub,
	}
}

// Start 订阅存储变更并开始转发
func (s *VehicleService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("Vehicle service already running, skipping start")
		return nil
	}

	changes, cancel := s.store.Subscribe()
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.relayLoop(ctx, changes)

	s.logger.Info("Vehicle service started")
	return nil
}

// Stop 停止转发
func (s *VehicleService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Vehicle service stopped")
}

func (s *VehicleService) relayLoop(ctx context.Context, changes <-chan store.Change) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.broadcastChange(change)
		}
	}
}

// broadcastChange 广播变更到 WebSocket
func (s *VehicleService) broadcastChange(change store.Change) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastChange(change)
	s.logger.Debug("Broadcasted change via WebSocket",
		zap.String("op", string(change.Op)),
		zap.String("vehicle_id", change.VehicleID),
	)
}

// GetCars 获取车辆列表（用于 WebSocket 初始数据）
func (s *VehicleService) GetCars() []models.Vehicle {
	return s.store.Vehicles()
}

// InitData WebSocket 初始数据
func (s *VehicleService) InitData() *ws.InitData {
	return &ws.InitData{Cars: s.GetCars()}
}
