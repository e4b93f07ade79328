package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnslin/crowdfund-desktop/core/httpclient"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	rec.WriteHeader(status)
	rec.Body.WriteString(body)
	return rec.Result()
}

func TestTokenMiddlewareAttachesHeader(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-1"))
	mw := TokenMiddleware(ts, "Token")

	req, _ := http.NewRequest(http.MethodGet, "http://mock/api/auth/profile/", nil)
	require.NoError(t, mw(req))
	assert.Equal(t, "Token tok-1", req.Header.Get("Authorization"))
}

func TestTokenMiddlewareSchemeConfigurable(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-1"))
	mw := TokenMiddleware(ts, "Bearer")

	req, _ := http.NewRequest(http.MethodGet, "http://mock/api/donations/", nil)
	require.NoError(t, mw(req))
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
}

func TestTokenMiddlewareSkipsWhenAbsent(t *testing.T) {
	mw := TokenMiddleware(store.NewMemoryTokenStore(), "Token")
	req, _ := http.NewRequest(http.MethodGet, "http://mock/api/project/", nil)
	require.NoError(t, mw(req))
	assert.Empty(t, req.Header.Get("Authorization"))
}

// 令牌必须在每次请求时重读：登出后发出的请求不得携带旧令牌。
func TestTokenMiddlewareRereadsPerRequest(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-old"))
	mw := TokenMiddleware(ts, "Token")

	req1, _ := http.NewRequest(http.MethodGet, "http://mock/api/project/", nil)
	require.NoError(t, mw(req1))
	assert.Equal(t, "Token tok-old", req1.Header.Get("Authorization"))

	require.NoError(t, ts.Clear())
	req2, _ := http.NewRequest(http.MethodGet, "http://mock/api/project/", nil)
	require.NoError(t, mw(req2))
	assert.Empty(t, req2.Header.Get("Authorization"))
}

// 受保护端点返回 401 时触发强制登出，随后守卫把受保护视图
// 重定向到登录页并携带原路径。
func TestUnauthorizedHookForcesLogout(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	api := &fakeAPI{}
	ctrl := newController(api, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	client := httpclient.NewClient(
		httpclient.WithMiddlewares(TokenMiddleware(ts, "Token")),
		httpclient.WithResponseHooks(UnauthorizedHook(ctrl)),
		httpclient.WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusUnauthorized, `{"detail":"会话已过期"}`), nil
			}),
		}),
	)

	req, _ := http.NewRequest(http.MethodGet, "http://mock/api/donations/", nil)
	err = client.Do(req, nil)
	require.Error(t, err, "原始错误必须原样返回给调用方")

	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)

	decision := Decide(ctrl.Status(), RequiresAuthenticated, "/donations", "")
	assert.Equal(t, ActionRedirectToLogin, decision.Action)
	assert.Equal(t, "/donations", decision.Target)
}

// 登录端点自身的 401 是"密码错误"，不得触发强制登出。
func TestUnauthorizedHookIgnoresCredentialEndpoints(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	require.NoError(t, ts.Save("tok-existing"))
	ctrl := newController(&fakeAPI{}, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	require.Equal(t, StatusAuthenticated, ctrl.Status())

	hook := UnauthorizedHook(ctrl)
	for _, path := range []string{
		"/api/auth/login/",
		"/api/auth/register/",
		"/api/auth/forgot-password/",
		"/api/auth/reset-password/uid/sec/",
		"/api/auth/activate/uid/sec/",
	} {
		req, _ := http.NewRequest(http.MethodPost, "http://mock"+path, nil)
		hook(req, jsonResponse(http.StatusUnauthorized, `{"detail":"Invalid credentials"}`))
	}

	assert.Equal(t, StatusAuthenticated, ctrl.Status(), "凭证端点的 401 不代表会话过期")
	token, err := ts.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-existing", token)
}

// 并发 401 下强制登出幂等：清除已清除的令牌是空操作。
func TestUnauthorizedHookConcurrent(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	ctrl := newController(&fakeAPI{}, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	hook := UnauthorizedHook(ctrl)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "http://mock/api/auth/profile/", nil)
			hook(req, jsonResponse(http.StatusUnauthorized, `{"detail":"expired"}`))
		}()
	}
	wg.Wait()

	assert.Equal(t, StatusAnonymous, ctrl.Status())
	_, loadErr := ts.Load()
	assert.ErrorIs(t, loadErr, store.ErrTokenNotFound)
}

func TestUnauthorizedHookIgnoresOtherStatus(t *testing.T) {
	ts := store.NewMemoryTokenStore()
	ctrl := newController(&fakeAPI{}, ts)
	require.NoError(t, ctrl.Bootstrap(context.Background()))
	_, err := ctrl.Login(context.Background(), "demo@example.com", "secret")
	require.NoError(t, err)

	hook := UnauthorizedHook(ctrl)
	req, _ := http.NewRequest(http.MethodGet, "http://mock/api/project/", nil)
	hook(req, jsonResponse(http.StatusInternalServerError, `{"detail":"boom"}`))
	hook(req, jsonResponse(http.StatusForbidden, `{"detail":"没有权限"}`))

	assert.Equal(t, StatusAuthenticated, ctrl.Status(), "仅 401 触发强制登出")
}
