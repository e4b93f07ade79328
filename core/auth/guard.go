package auth

// Requirement 描述视图对会话状态的要求。
type Requirement int

const (
	// Public 任何人可见。
	Public Requirement = iota
	// RequiresAuthenticated 仅已认证会话可见。
	RequiresAuthenticated
	// RequiresAnonymous 仅匿名会话可见（登录、注册页）。
	RequiresAnonymous
)

// Action 是守卫给出的处置方式。
type Action int

const (
	// ActionRender 正常渲染。
	ActionRender Action = iota
	// ActionShowLoading 会话尚未恢复完成，先展示加载态。
	ActionShowLoading
	// ActionRedirectToLogin 跳转登录页，Target 携带原始路径以便登录后返回。
	ActionRedirectToLogin
	// ActionRedirectToHome 跳转首页或 Target 指定的回跳地址。
	ActionRedirectToHome
)

// Decision 为守卫结果。
type Decision struct {
	Action Action
	Target string
}

// Decide 是纯函数路由守卫：由会话状态与视图要求得出处置方式。
//   - Initializing 一律先展示加载态，避免恢复完成前闪现登录跳转；
//   - AuthError 对受保护视图按未认证处理（令牌可能已失效，交给登录页确认）；
//   - redirectTarget 为到达仅匿名视图时携带的回跳地址，可为空。
func Decide(status Status, req Requirement, path, redirectTarget string) Decision {
	if status == StatusInitializing {
		return Decision{Action: ActionShowLoading}
	}
	authenticated := status == StatusAuthenticated
	switch req {
	case RequiresAuthenticated:
		if !authenticated {
			return Decision{Action: ActionRedirectToLogin, Target: path}
		}
	case RequiresAnonymous:
		if authenticated {
			return Decision{Action: ActionRedirectToHome, Target: redirectTarget}
		}
	}
	return Decision{Action: ActionRender}
}
