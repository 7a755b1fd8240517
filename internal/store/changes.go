package store

import (
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
)

// Op 变更类型
type Op string

const (
	OpHydrated       Op = "hydrated"
	OpVehicleAdded   Op = "vehicle_added"
	OpVehicleUpdated Op = "vehicle_updated"
	OpVehicleRemoved Op = "vehicle_removed"
	OpRecordAdded    Op = "record_added"
	OpRecordUpdated  Op = "record_updated"
	OpRecordDeleted  Op = "record_deleted"
	OpCleared        Op = "cleared"
)

// Change 一次成功的变更
type Change struct {
	Op         Op                `json:"op"`
	VehicleID  string            `json:"vehicleId,omitempty"`
	RecordKind models.RecordKind `json:"recordKind,omitempty"`
	RecordID   string            `json:"recordId,omitempty"`
}

const subscriberBuffer = 64

// Subscribe 订阅变更，返回的函数用于取消订阅；消费过慢的订阅者会丢失事件
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	s.subsMu.Lock()
	if s.subsClosed {
		s.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Store) publish(c Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			s.logger.Warn("Subscriber too slow, change dropped", zap.String("op", string(c.Op)))
		}
	}
}

func (s *Store) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
	s.subsClosed = true
}
