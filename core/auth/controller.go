package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/httpclient"
	"github.com/dnslin/crowdfund-desktop/core/model"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

// API 是控制器依赖的后端鉴权接口，由 fundapi.Client 实现，测试时可替换。
type API interface {
	Login(ctx context.Context, email, password string) (*fundapi.LoginResult, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*model.User, error)
	Register(ctx context.Context, req fundapi.RegisterRequest) (*fundapi.RegisterResult, error)
	UpdateProfile(ctx context.Context, update fundapi.ProfileUpdate) (*model.User, error)
	UpdateAvatar(ctx context.Context, fileName string, file io.Reader) (*model.User, error)
	DeleteAccount(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetID, secret, newPassword string) error
	VerifyEmail(ctx context.Context, resetID, secret string) error
}

// Controller 维护会话状态机：引导、登录、登出、资料刷新与状态订阅。
// 状态变更由互斥锁保护；网络调用期间不持锁，响应到达后凭会话代数决定
// 是否仍然适用——后发的登出永远压过先发但慢到的登录结果。
type Controller struct {
	api    API
	store  store.TokenStore
	logger httpclient.Logger

	// registerAutoLogin 打开时，注册响应若带回令牌则直接建立会话。
	registerAutoLogin bool

	mu         sync.Mutex
	session    Session
	generation uint64
	subs       map[int]func(Session)
	nextSub    int
}

// ControllerOption 自定义控制器。
type ControllerOption func(*Controller)

// WithLogger 注入日志。
func WithLogger(logger httpclient.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegisterAutoLogin 控制注册成功后是否直接建立会话。
func WithRegisterAutoLogin(enabled bool) ControllerOption {
	return func(c *Controller) {
		c.registerAutoLogin = enabled
	}
}

// NewController 创建控制器，初始状态为 Initializing。
func NewController(api API, tokenStore store.TokenStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:     api,
		store:   tokenStore,
		logger:  httpclient.NopLogger{},
		session: Session{Status: StatusInitializing},
		subs:    make(map[int]func(Session)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Snapshot 返回当前会话拷贝。
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Status 返回当前状态。
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Status
}

// Subscribe 注册状态变更回调，返回取消函数。回调在锁外执行。
func (c *Controller) Subscribe(fn func(Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Bootstrap 从存储恢复会话：无令牌直接匿名；有令牌则拉取资料验证。
// 认证失败清除令牌，临时故障保留令牌并进入 AuthError。
func (c *Controller) Bootstrap(ctx context.Context) error {
	token, err := c.store.Load()
	if err != nil || token == "" {
		c.transition(func(s *Session) {
			s.Token = ""
			s.User = nil
			s.Status = StatusAnonymous
		})
		return nil
	}

	c.mu.Lock()
	c.session.Token = token
	gen := c.generation
	c.mu.Unlock()

	user, err := c.api.Profile(ctx)
	if err != nil {
		if isAuthFailure(err) {
			c.ForceLogout()
			return nil
		}
		// 网络不可达或服务端故障，不能据此销毁可能仍然有效的令牌
		c.applyIfCurrent(gen, func(s *Session) {
			s.Status = StatusAuthError
		})
		return coreerrors.Wrap(coreerrors.ErrCodeTransient, "auth: 会话恢复暂时失败", err)
	}
	c.applyIfCurrent(gen, func(s *Session) {
		s.User = user
		s.Status = StatusAuthenticated
	})
	return nil
}

// Login 用邮箱密码建立会话，成功返回用户记录。
// 失败不改变现有状态；慢响应若已被登出压过则返回 ErrLoginSuperseded。
func (c *Controller) Login(ctx context.Context, email, password string) (*model.User, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	result, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, classifyLoginError(err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil, ErrLoginSuperseded
	}
	c.session = Session{Token: result.Token, User: result.User, Status: StatusAuthenticated}
	// 落盘与状态变更在同一临界区内，避免并发登出后令牌复活；
	// Save 失败时存储自行降级，不影响本进程内的会话
	if saveErr := c.store.Save(result.Token); saveErr != nil {
		c.logger.Errorf("auth: 令牌落盘失败: %v", saveErr)
	}
	subs := c.collectSubs()
	snapshot := c.session.Clone()
	c.mu.Unlock()
	c.fanout(subs, snapshot)
	return result.User.Clone(), nil
}

// LoginWithToken 用外部已签发的令牌与用户直接建立会话（注册自动登录等场景）。
func (c *Controller) LoginWithToken(token string, user *model.User) error {
	if token == "" {
		return coreerrors.New(coreerrors.ErrCodeInvalidArgument, "auth: 令牌为空")
	}
	c.mu.Lock()
	c.generation++
	c.session = Session{Token: token, User: user.Clone(), Status: StatusAuthenticated}
	if err := c.store.Save(token); err != nil {
		c.logger.Errorf("auth: 令牌落盘失败: %v", err)
	}
	subs := c.collectSubs()
	snapshot := c.session.Clone()
	c.mu.Unlock()
	c.fanout(subs, snapshot)
	return nil
}

// Logout 结束会话。先尽力通知服务端（此时令牌仍在存储中，鉴权头可用），
// 无论网络结果如何都清除本地状态。可安全重复调用，也可携带已失效令牌调用。
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	hadToken := c.session.Token != ""
	c.mu.Unlock()

	if hadToken {
		if err := c.api.Logout(ctx); err != nil {
			c.logger.Debugf("auth: 登出通知失败（忽略）: %v", err)
		}
	}
	c.clearLocked()
}

// ForceLogout 由响应钩子在检测到认证失败时触发：只做本地清理，
// 不再访问网络。幂等，可在并发 401 下安全多次调用。
func (c *Controller) ForceLogout() {
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.mu.Lock()
	c.generation++
	changed := c.session.Token != "" || c.session.Status != StatusAnonymous
	c.session = Session{Status: StatusAnonymous}
	if err := c.store.Clear(); err != nil {
		c.logger.Errorf("auth: 清除令牌失败: %v", err)
	}
	subs := c.collectSubs()
	snapshot := c.session.Clone()
	c.mu.Unlock()
	if changed {
		c.fanout(subs, snapshot)
	}
}

// RefreshProfile 重新拉取当前用户资料。401 走完整的强制登出语义；
// 其余失败保留令牌并进入 AuthError。
func (c *Controller) RefreshProfile(ctx context.Context) (*model.User, error) {
	token, err := c.store.Load()
	if err != nil || token == "" {
		return nil, ErrNotAuthenticated
	}
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	user, err := c.api.Profile(ctx)
	if err != nil {
		if isAuthFailure(err) {
			c.ForceLogout()
			return nil, ErrSessionExpired
		}
		c.applyIfCurrent(gen, func(s *Session) {
			s.Status = StatusAuthError
		})
		return nil, coreerrors.Wrap(coreerrors.ErrCodeTransient, "auth: 资料刷新暂时失败", err)
	}
	c.applyIfCurrent(gen, func(s *Session) {
		s.User = user
		s.Status = StatusAuthenticated
	})
	return user.Clone(), nil
}

// Register 注册新用户。默认不改变会话状态（邮箱验证可能尚未完成）；
// 开启自动登录且后端返回令牌时直接建立会话。
func (c *Controller) Register(ctx context.Context, req fundapi.RegisterRequest) (*fundapi.RegisterResult, error) {
	result, err := c.api.Register(ctx, req)
	if err != nil {
		return nil, surfaceAPIError(err)
	}
	if c.registerAutoLogin && result.Token != "" && result.User != nil {
		if err := c.LoginWithToken(result.Token, result.User); err != nil {
			return result, err
		}
	}
	return result, nil
}

// UpdateProfile 更新资料并刷新缓存的用户记录。
func (c *Controller) UpdateProfile(ctx context.Context, update fundapi.ProfileUpdate) (*model.User, error) {
	user, err := c.api.UpdateProfile(ctx, update)
	if err != nil {
		return nil, surfaceAPIError(err)
	}
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.applyIfCurrent(gen, func(s *Session) {
		if s.Status == StatusAuthenticated {
			s.User = user
		}
	})
	return user.Clone(), nil
}

// UpdateAvatar 上传头像并刷新缓存的用户记录。
func (c *Controller) UpdateAvatar(ctx context.Context, fileName string, file io.Reader) (*model.User, error) {
	user, err := c.api.UpdateAvatar(ctx, fileName, file)
	if err != nil {
		return nil, surfaceAPIError(err)
	}
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.applyIfCurrent(gen, func(s *Session) {
		if s.Status == StatusAuthenticated {
			s.User = user
		}
	})
	return user.Clone(), nil
}

// DeleteAccount 注销账号，成功后清理本地会话。
func (c *Controller) DeleteAccount(ctx context.Context) error {
	if err := c.api.DeleteAccount(ctx); err != nil {
		return surfaceAPIError(err)
	}
	c.ForceLogout()
	return nil
}

// RequestPasswordReset 发起找回密码，无会话副作用。
func (c *Controller) RequestPasswordReset(ctx context.Context, email string) error {
	if err := c.api.ForgotPassword(ctx, email); err != nil {
		return surfaceAPIError(err)
	}
	return nil
}

// ConfirmPasswordReset 完成密码重置，无会话副作用。
func (c *Controller) ConfirmPasswordReset(ctx context.Context, resetID, secret, newPassword string) error {
	if err := c.api.ResetPassword(ctx, resetID, secret, newPassword); err != nil {
		return surfaceAPIError(err)
	}
	return nil
}

// VerifyEmail 完成邮箱验证，无会话副作用。
func (c *Controller) VerifyEmail(ctx context.Context, resetID, secret string) error {
	if err := c.api.VerifyEmail(ctx, resetID, secret); err != nil {
		return surfaceAPIError(err)
	}
	return nil
}

// transition 无条件应用状态变更并通知订阅方。
func (c *Controller) transition(mutate func(*Session)) {
	c.mu.Lock()
	mutate(&c.session)
	subs := c.collectSubs()
	snapshot := c.session.Clone()
	c.mu.Unlock()
	c.fanout(subs, snapshot)
}

// applyIfCurrent 仅在会话代数未变时应用状态变更，返回是否应用。
func (c *Controller) applyIfCurrent(gen uint64, mutate func(*Session)) bool {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return false
	}
	mutate(&c.session)
	subs := c.collectSubs()
	snapshot := c.session.Clone()
	c.mu.Unlock()
	c.fanout(subs, snapshot)
	return true
}

func (c *Controller) collectSubs() []func(Session) {
	fns := make([]func(Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Controller) fanout(subs []func(Session), snapshot Session) {
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}

// isAuthFailure 判断错误是否为服务端的 401 认证失败。
// 网络错误、超时与 5xx 都不算——那是临时故障，不能销毁令牌。
func isAuthFailure(err error) bool {
	var apiErr *httpclient.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// classifyLoginError 把登录失败翻译为面向调用方的错误：
// 带字段消息的校验失败原样透出首条；凭证被拒给统一提示；网络故障单独归类。
func classifyLoginError(err error) error {
	var netErr *httpclient.NetworkError
	if errors.As(err, &netErr) {
		return coreerrors.Wrap(coreerrors.ErrCodeTransient, "auth: 网络暂时不可用", err)
	}
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.FirstMessage(); msg != "" {
			return coreerrors.Wrap(coreerrors.ErrCodeUnauthenticated, msg, err)
		}
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest {
			return coreerrors.Wrap(coreerrors.ErrCodeUnauthenticated, ErrInvalidCredentials.Message, err)
		}
	}
	return err
}

// surfaceAPIError 把字段级校验错误转成人类可读消息，其余错误原样透出。
func surfaceAPIError(err error) error {
	var netErr *httpclient.NetworkError
	if errors.As(err, &netErr) {
		return coreerrors.Wrap(coreerrors.ErrCodeTransient, "auth: 网络暂时不可用", err)
	}
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.FirstMessage(); msg != "" {
			return coreerrors.Wrap(coreerrors.ErrCodeValidation, msg, err)
		}
	}
	return err
}
