package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileTokenStore 把令牌落盘到固定路径，跨进程重启存活。
// 磁盘不可写时（只读目录、配额耗尽）自动降级为进程内保存：
// Save 仍返回成功，当前进程内控制器持有的令牌不受影响。
type FileTokenStore struct {
	path string

	mu       sync.RWMutex
	degraded bool
	memory   string
	hasMem   bool
}

// NewFileTokenStore 创建文件存储，path 为空时使用用户配置目录下的默认路径。
func NewFileTokenStore(path string) *FileTokenStore {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &FileTokenStore{path: path}
}

// DefaultTokenPath 返回默认令牌文件路径。
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "crowdfund-desktop", "token")
}

// Path 返回令牌文件路径。
func (f *FileTokenStore) Path() string {
	return f.path
}

// Save 实现 TokenStore。写盘失败时降级为内存保存且不报错。
func (f *FileTokenStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory = token
	f.hasMem = true
	if err := f.writeFile(token); err != nil {
		f.degraded = true
		return nil
	}
	f.degraded = false
	return nil
}

// Load 实现 TokenStore。降级状态下优先返回内存中的令牌。
func (f *FileTokenStore) Load() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.degraded {
		if !f.hasMem {
			return "", ErrTokenNotFound
		}
		return f.memory, nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if f.hasMem {
			return f.memory, nil
		}
		return "", ErrTokenNotFound
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Clear 实现 TokenStore。同时清除文件与内存两层。
func (f *FileTokenStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory = ""
	f.hasMem = false
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		// 删除失败时至少截断内容，避免旧令牌残留
		if writeErr := f.writeFile(""); writeErr != nil {
			f.degraded = true
		}
	}
	return nil
}

// Degraded 报告存储是否处于仅内存模式，供上层记录日志。
func (f *FileTokenStore) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

func (f *FileTokenStore) writeFile(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token), 0o600)
}
