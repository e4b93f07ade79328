package store

import "sync"

// MemoryTokenStore 进程内令牌存储，主要用于测试与降级场景。
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
	has   bool
}

// NewMemoryTokenStore 创建空的内存存储。
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Save 实现 TokenStore。
func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.has = true
	return nil
}

// Load 实现 TokenStore。
func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.has {
		return "", ErrTokenNotFound
	}
	return m.token, nil
}

// Clear 实现 TokenStore。
func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.has = false
	return nil
}
