package states

import (
	"fmt"
	"sync"
	"time"
)

type session struct {
	state   State
	data    any
	touched time.Time
}

// Manager keeps user sessions in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*session
	now      func() time.Time
}

// NewManager creates an empty session store.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[int64]*session),
		now:      now,
	}
}

// GetState returns the user's current step.
func (m *Manager) GetState(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[chatID]
	if !exists {
		return StateNone
	}
	return s.state
}

// GetData returns the user's flow data.
func (m *Manager) GetData(chatID int64) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[chatID]
	if !exists {
		return nil
	}
	return s.data
}

// SetState sets the user's step. Nil data keeps the previous data.
func (m *Manager) SetState(chatID int64, state State, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[chatID]
	if !exists {
		s = &session{}
		m.sessions[chatID] = s
	}
	s.state = state
	s.touched = m.now()
	if data != nil {
		s.data = data
	}
}

// Clear drops the user's session.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
}

func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(-idle)
	removed := 0
	for chatID, s := range m.sessions {
		if s.touched.Before(deadline) {
			delete(m.sessions, chatID)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// DataAs returns the flow data as T.
func DataAs[T any](store DataReader, chatID int64) (*T, error) {
	data := store.GetData(chatID)
	if data == nil {
		return nil, fmt.Errorf("no data for chat %d", chatID)
	}

	flowData, ok := data.(*T)
	if !ok {
		return nil, fmt.Errorf("invalid data type %T for chat %d", data, chatID)
	}
	return flowData, nil
}
