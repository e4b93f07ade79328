package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/httpclient"
	"github.com/dnslin/crowdfund-desktop/core/model"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

// fakeAPI 用函数字段替换各端点行为，未设置的端点返回零值成功。
type fakeAPI struct {
	mu          sync.Mutex
	loginFn     func(email, password string) (*fundapi.LoginResult, error)
	profileFn   func() (*model.User, error)
	registerFn  func(req fundapi.RegisterRequest) (*fundapi.RegisterResult, error)
	logoutErr   error
	logoutCalls int
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*fundapi.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	return &fundapi.LoginResult{Token: "tok", User: demoUser()}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAPI) Profile(context.Context) (*model.User, error) {
	if f.profileFn != nil {
		return f.profileFn()
	}
	return demoUser(), nil
}

func (f *fakeAPI) Register(_ context.Context, req fundapi.RegisterRequest) (*fundapi.RegisterResult, error) {
	if f.registerFn != nil {
		return f.registerFn(req)
	}
	return &fundapi.RegisterResult{Detail: "请查收验证邮件"}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, update fundapi.ProfileUpdate) (*model.User, error) {
	u := demoUser()
	u.Bio = update.Bio
	return u, nil
}

func (f *fakeAPI) UpdateAvatar(_ context.Context, fileName string, _ io.Reader) (*model.User, error) {
	u := demoUser()
	u.AvatarURL = "/media/" + fileName
	return u, nil
}

func (f *fakeAPI) DeleteAccount(context.Context) error { return nil }

func (f *fakeAPI) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeAPI) ResetPassword(context.Context, string, string, string) error { return nil }

func (f *fakeAPI) VerifyEmail(context.Context, string, string) error { return nil }

func (f *fakeAPI) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCalls
}

func demoUser() *model.User {
	return &model.User{ID: 1, Username: "demo", Email: "demo@example.com"}
}

func unauthorized(msg string) error {
	return &httpclient.APIError{Status: http.StatusUnauthorized, Detail: msg}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newController(api API, ts store.TokenStore, opts ...ControllerOption) *Controller {
	return NewController(api, ts, opts...)
}

// 启动时无令牌：引导后匿名，受保护视图跳登录并携带原路径。
func TestBootstrapWithoutToken(t *testing.T) {
	ctrl := newController(&fakeAPI{}, store.NewMemoryTokenStore())
	assert.Equal(t, StatusInitializing, ctrl.Status())

	require.NoError(t, ctrl.Bootstrap(context.Background()))
	assert.Equal(t, StatusAnonymous, ctrl.Status())

	decision := Decide(ctrl.Status(), RequiresAuthenticated, "/profile", "")
	assert.Equal(t, ActionRedirectToLogin, decision.Action)
	assert.Equal(t, "/profile", decision.Target)
}

// 存储中有有效令牌：引导后已认证，仅匿名视图跳首页。
func TestBootstrapWithValidToken(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-valid"))
	ctrl := newController(&fakeAPI{}, ts)

	require.NoError(t, ctrl.Bootstrap(context.Background()))
	session := ctrl.Snapshot()
	assert.Equal(t, StatusAuthenticated, session.Status)
	require.NotNil(t, session.User)
	assert.Equal(t, "demo", session.User.Username)

	decision := Decide(session.Status, RequiresAnonymous, "/login", "")
	assert.Equal(t, ActionRedirectToHome, decision.Action)
}

// 引导期间资料接口返回 401：令牌清除、状态匿名。
func TestBootstrapUnauthorizedClearsToken(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-stale"))
	api := &fakeAPI{profileFn: func() (*model.User, error) {
		return nil, unauthorized("无效令牌")
	}}
	ctrl := newController(api, ts)

	require.NoError(t, ctrl.Bootstrap(context.Background()))
	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, err := ts.Load()
	assert.ErrorIs(t, err, store.ErrTokenNotFound)
}

// 超时是临时故障：进入 AuthError 且令牌保留。
func TestBootstrapTimeoutKeepsToken(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-keep"))
	api := &fakeAPI{profileFn: func() (*model.User, error) {
		return nil, &httpclient.NetworkError{Err: timeoutErr{}}
	}}
	ctrl := newController(api, ts)

	err := ctrl.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusAuthError, ctrl.Status(), "超时不得按认证失败处理")

	token, loadErr := ts.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, "tok-keep", token, "临时故障不得销毁令牌")
}

func TestLoginSuccess(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	ctrl := newController(&fakeAPI{}, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	user, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "demo", user.Username)
	assert.Equal(t, StatusAuthenticated, ctrl.Status())

	token, err := ts.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

// 登录被拒时透出服务端消息，状态不变，不触发登出路径。
func TestLoginInvalidCredentials(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{loginFn: func(string, string) (*fundapi.LoginResult, error) {
		return nil, unauthorized("Invalid credentials")
	}}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	_, err := ctrl.Login(context.Background(), "demo@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Equal(t, StatusAnonymous, ctrl.Status())
	assert.Equal(t, 0, api.logoutCount(), "登录失败不得递归进登出路径")
}

// 登录失败带字段校验消息时，调用方拿到首条消息。
func TestLoginSurfacesFieldMessage(t *testing.T) {
	api := &fakeAPI{loginFn: func(string, string) (*fundapi.LoginResult, error) {
		return nil, &httpclient.APIError{
			Status: http.StatusBadRequest,
			Fields: map[string][]string{"email": {"邮箱格式不正确"}},
		}
	}}
	ctrl := newController(api, store.NewMemoryTokenStore())
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	_, err := ctrl.Login(context.Background(), "bad", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "邮箱格式不正确")
}

// 重复登出与并发登出都安全收敛到匿名态。
func TestLogoutIdempotent(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	ctrl.Logout(context.Background())
	ctrl.Logout(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Logout(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}

// 登出是本地优先操作：服务端通知失败被吞掉，本地状态照常清理。
func TestLogoutSwallowsServerFailure(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{logoutErr: errors.New("服务端不可达")}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	ctrl.Logout(context.Background())
	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}

// 登录响应慢于后续登出到达时被代数检查丢弃，不复活会话。
func TestStaleLoginCannotResurrectSession(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	release := make(chan struct{})
	api := &fakeAPI{loginFn: func(string, string) (*fundapi.LoginResult, error) {
		<-release
		return &fundapi.LoginResult{Token: "tok-stale", User: demoUser()}, nil
	}}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
		errCh <- err
	}()

	ctrl.Logout(context.Background())
	close(release)

	err := <-errCh
	assert.ErrorIs(t, err, ErrLoginSuperseded)
	assert.Equal(t, StatusAnonymous, ctrl.Status(), "登出必须压过慢到的登录结果")
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}

// 资料刷新遇到 401 走完整的强制登出语义。
func TestRefreshProfileUnauthorized(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	api.profileFn = func() (*model.User, error) {
		return nil, unauthorized("会话已过期")
	}
	_, err = ctrl.RefreshProfile(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}

// 资料刷新的临时故障保留令牌，状态转入 AuthError。
func TestRefreshProfileTransientFailure(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	api.profileFn = func() (*model.User, error) {
		return nil, &httpclient.NetworkError{Err: errors.New("connection refused")}
	}
	_, err = ctrl.RefreshProfile(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StatusAuthError, ctrl.Status())

	token, loadErr := ts.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, "tok", token)
}

// 默认流程：注册不建立会话（邮箱验证可能在前）。
func TestRegisterDoesNotAuthenticate(t *testing.T) {
	ctrl := newController(&fakeAPI{}, store.NewMemoryTokenStore())
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	result, err := ctrl.Register(context.Background(), fundapi.RegisterRequest{
		Username: "new", Email: "new@example.com", Password: "x",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Detail)
	assert.Equal(t, StatusAnonymous, ctrl.Status())
}

// 配置开启且后端返回令牌时，注册直接建立会话。
func TestRegisterAutoLogin(t *testing.T) {
	api := &fakeAPI{registerFn: func(fundapi.RegisterRequest) (*fundapi.RegisterResult, error) {
		return &fundapi.RegisterResult{Token: "tok-new", User: demoUser()}, nil
	}}
	ts := store.NewMemoryTokenStore()
	ctrl := newController(api, ts, WithRegisterAutoLogin(true))
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	_, err := ctrl.Register(context.Background(), fundapi.RegisterRequest{
		Username: "new", Email: "new@example.com", Password: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, ctrl.Status())

	token, loadErr := ts.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, "tok-new", token)
}

// 注册失败时字段校验消息透出给调用方。
func TestRegisterSurfacesFieldErrors(t *testing.T) {
	api := &fakeAPI{registerFn: func(fundapi.RegisterRequest) (*fundapi.RegisterResult, error) {
		return nil, &httpclient.APIError{
			Status: http.StatusBadRequest,
			Fields: map[string][]string{"username": {"已被占用"}},
		}
	}}
	ctrl := newController(api, store.NewMemoryTokenStore())
	require.NoError(t, ctrl.Bootstrap(context.Background()))

	_, err := ctrl.Register(context.Background(), fundapi.RegisterRequest{Username: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已被占用")
	assert.Equal(t, StatusAnonymous, ctrl.Status())
}

func TestSubscribeNotifiesTransitions(t *testing.T) {
	ctrl := newController(&fakeAPI{}, store.NewMemoryTokenStore())

	var mu sync.Mutex
	var seen []Status
	cancel := ctrl.Subscribe(func(s Session) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)
	ctrl.Logout(context.Background())

	mu.Lock()
	got := append([]Status(nil), seen...)
	mu.Unlock()
	assert.Equal(t, []Status{StatusAnonymous, StatusAuthenticated, StatusAnonymous}, got)

	cancel()
	ctrl.ForceLogout()
	mu.Lock()
	after := len(seen)
	mu.Unlock()
	assert.Equal(t, len(got), after, "取消订阅后不应再收到通知")
}

func TestUpdateProfileRefreshesUser(t *testing.T) {
	ctrl := newController(&fakeAPI{}, store.NewMemoryTokenStore())
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	user, err := ctrl.UpdateProfile(context.Background(), fundapi.ProfileUpdate{Bio: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "你好", user.Bio)
	assert.Equal(t, "你好", ctrl.Snapshot().User.Bio)
}

func TestDeleteAccountClearsSession(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	ctrl := newController(&fakeAPI{}, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, ctrl.DeleteAccount(context.Background()))
	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}
