package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		req        Requirement
		path       string
		redirect   string
		wantAction Action
		wantTarget string
	}{
		// 会话恢复期间一律展示加载态，受保护视图也不得提前跳登录
		{"初始化中受保护视图", StatusInitializing, RequiresAuthenticated, "/profile", "", ActionShowLoading, ""},
		{"初始化中公开视图", StatusInitializing, Public, "/", "", ActionShowLoading, ""},
		{"初始化中仅匿名视图", StatusInitializing, RequiresAnonymous, "/login", "", ActionShowLoading, ""},

		{"匿名访问受保护视图", StatusAnonymous, RequiresAuthenticated, "/profile", "", ActionRedirectToLogin, "/profile"},
		{"认证故障访问受保护视图", StatusAuthError, RequiresAuthenticated, "/donations", "", ActionRedirectToLogin, "/donations"},
		{"已认证访问受保护视图", StatusAuthenticated, RequiresAuthenticated, "/profile", "", ActionRender, ""},

		{"已认证访问仅匿名视图", StatusAuthenticated, RequiresAnonymous, "/login", "", ActionRedirectToHome, ""},
		{"已认证访问仅匿名视图带回跳", StatusAuthenticated, RequiresAnonymous, "/login", "/projects/p1", ActionRedirectToHome, "/projects/p1"},
		{"匿名访问仅匿名视图", StatusAnonymous, RequiresAnonymous, "/login", "", ActionRender, ""},

		{"匿名访问公开视图", StatusAnonymous, Public, "/projects", "", ActionRender, ""},
		{"已认证访问公开视图", StatusAuthenticated, Public, "/projects", "", ActionRender, ""},
		{"认证故障访问公开视图", StatusAuthError, Public, "/projects", "", ActionRender, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.status, tt.req, tt.path, tt.redirect)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantTarget, got.Target)
		})
	}
}
