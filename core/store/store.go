// Package store 提供凭证的本地持久化。
// 令牌是不透明字符串，存储层不校验其格式。
package store

import coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"

var (
	// ErrTokenNotFound 用于标记存储中不存在令牌。
	ErrTokenNotFound = coreerrors.New(coreerrors.ErrCodeNotFound, "store: 未找到令牌")
)

// TokenStore 抽象单槽位令牌持久化。
// 写入方只有会话控制器；读取方（请求中间件、引导流程）每次使用前重新读取，
// 不得跨操作缓存。
type TokenStore interface {
	// Save 写入令牌。持久化失败时允许降级为进程内保存，不向调用方报错。
	Save(token string) error
	// Load 读取令牌，不存在时返回 ErrTokenNotFound。
	Load() (string, error)
	// Clear 清除令牌，槽位已空时为无害的空操作。
	Clear() error
}
