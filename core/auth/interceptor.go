package auth

import (
	"net/http"
	"strings"

	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/httpclient"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

// DefaultAuthScheme 为默认的 Authorization 头前缀。
const DefaultAuthScheme = "Token"

// TokenMiddleware 在每个出站请求上注入鉴权头。
// 令牌在请求发出时从存储重新读取，绝不跨请求缓存——登出后发出的请求
// 不会再携带旧令牌。令牌缺失时请求原样放行。
func TokenMiddleware(tokenStore store.TokenStore, scheme string) httpclient.Middleware {
	if scheme == "" {
		scheme = DefaultAuthScheme
	}
	return func(req *http.Request) error {
		token, err := tokenStore.Load()
		if err != nil || token == "" {
			return nil
		}
		req.Header.Set("Authorization", scheme+" "+token)
		return nil
	}
}

// credentialPaths 列出建立/重置凭证的端点。这些端点上的 401 表示
// 凭证本身被拒（密码错误等），不代表现有会话过期，不触发强制登出，
// 也避免登录失败递归进登出路径。
var credentialPaths = []string{
	fundapi.PathLogin,
	fundapi.PathRegister,
	fundapi.PathForgotPassword,
	fundapi.PathResetPassword,
	fundapi.PathActivate,
}

func isCredentialPath(path string) bool {
	for _, p := range credentialPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// UnauthorizedHook 在非凭证端点收到 401 时触发控制器的强制登出，
// 原始错误随后照常返回给调用方。强制登出幂等，并发 401 下可安全重入。
func UnauthorizedHook(ctrl *Controller) httpclient.ResponseHook {
	return func(req *http.Request, resp *http.Response) {
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return
		}
		if req != nil && req.URL != nil && isCredentialPath(req.URL.Path) {
			return
		}
		ctrl.ForceLogout()
	}
}
