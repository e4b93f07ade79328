package auth

import "github.com/dnslin/crowdfund-desktop/core/model"

// Status 表示会话状态机的四个状态。
type Status int

const (
	// StatusInitializing 表示正在从存储恢复会话，尚未得出结论。
	StatusInitializing Status = iota
	// StatusAnonymous 表示无有效凭证。
	StatusAnonymous
	// StatusAuthenticated 表示令牌与用户资料均已就绪。
	StatusAuthenticated
	// StatusAuthError 表示持有令牌但最近一次资料拉取遇到非认证故障，
	// 令牌保留，区别于凭证失效导致的登出。
	StatusAuthError
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAuthError:
		return "auth_error"
	default:
		return "unknown"
	}
}

// Session 记录当前的会话快照。
// 不变式：Authenticated 当且仅当令牌与用户同时存在；Anonymous 当且仅当令牌缺失；
// 令牌存在而用户缺失只在 Initializing/AuthError 期间出现。
type Session struct {
	Token  string
	User   *model.User
	Status Status
}

// Authenticated 判断会话是否已认证。
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Clone 返回会话的拷贝，用户记录一并复制，避免订阅方改动内部状态。
func (s Session) Clone() Session {
	cp := s
	cp.User = s.User.Clone()
	return cp
}
