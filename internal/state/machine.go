package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 存储生命周期状态常量
const (
	StateUninitialized = "uninitialized"
	StateHydrating     = "hydrating"
	StateReady         = "ready"
	StateDisposed      = "disposed"
)

// 事件常量
const (
	EventHydrate  = "hydrate"
	EventHydrated = "hydrated"
	EventDispose  = "dispose"
)

// Snapshot 生命周期快照
type Snapshot struct {
	State string    `json:"state"`
	Since time.Time `json:"since"`
}

// Machine 存储生命周期状态机
type Machine struct {
	mu            sync.RWMutex
	fsm           *fsm.FSM
	since         time.Time
	onStateChange func(from, to string)
}

// NewMachine 创建状态机，初始状态为 uninitialized
func NewMachine(onStateChange func(from, to string)) *Machine {
	m := &Machine{
		since:         time.Now(),
		onStateChange: onStateChange,
	}

	m.fsm = fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: EventHydrate, Src: []string{StateUninitialized}, Dst: StateHydrating},
			{Name: EventHydrated, Src: []string{StateHydrating}, Dst: StateReady},
			{Name: EventDispose, Src: []string{StateUninitialized, StateHydrating, StateReady}, Dst: StateDisposed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// Current 获取当前状态
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Is 当前是否处于指定状态
func (m *Machine) Is(state string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Is(state)
}

// Snapshot 获取当前状态及进入时间
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.fsm.Current(), Since: m.since}
}

// Trigger 触发事件
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}
