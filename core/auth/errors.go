package auth

import coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"

var (
	// ErrNotAuthenticated 在需要会话的操作发现令牌缺失时返回。
	ErrNotAuthenticated = coreerrors.New(coreerrors.ErrCodeUnauthenticated, "auth: 当前未登录")
	// ErrSessionExpired 在服务端判定凭证失效、触发强制登出后返回。
	ErrSessionExpired = coreerrors.New(coreerrors.ErrCodeUnauthenticated, "auth: 会话已过期")
	// ErrInvalidCredentials 在登录被拒且无更具体消息时返回。
	ErrInvalidCredentials = coreerrors.New(coreerrors.ErrCodeUnauthenticated, "auth: 邮箱或密码不正确")
	// ErrLoginSuperseded 在登录结果迟于后续登出到达、被代数检查丢弃时返回。
	ErrLoginSuperseded = coreerrors.New(coreerrors.ErrCodeInvalidState, "auth: 登录结果已被取代")
)
