package fundapi

import (
	"context"
	"fmt"
	"io"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/model"
)

// 后端鉴权相关端点，路径是后端契约的一部分。
const (
	PathLogin          = "auth/login/"
	PathRegister       = "auth/register/"
	PathProfile        = "auth/profile/"
	PathProfileDelete  = "auth/profile/delete/"
	PathLogout         = "auth/logout/"
	PathForgotPassword = "auth/forgot-password/"
	PathResetPassword  = "auth/reset-password/"
	PathActivate       = "auth/activate/"
)

// ErrEmptyCredentials 标记缺少登录凭证。
var ErrEmptyCredentials = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 邮箱或密码为空")

// Login 用邮箱密码换取令牌与用户信息。
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	var rsp LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, "POST", PathLogin, body, &rsp); err != nil {
		return nil, err
	}
	if rsp.Token == "" {
		return nil, coreerrors.New(coreerrors.ErrCodeInvalidState, "fundapi: 登录响应缺少令牌")
	}
	return &rsp, nil
}

// Register 注册新用户。是否随注册签发令牌由后端决定。
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var rsp RegisterResult
	if err := c.send(ctx, "POST", PathRegister, req, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

// Profile 获取当前用户资料，依赖外部注入的鉴权头。
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, PathProfile, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile 以 JSON 更新用户资料，返回更新后的记录。
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*model.User, error) {
	var user model.User
	if err := c.send(ctx, "PUT", PathProfile, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar 以 multipart 上传头像，返回更新后的用户记录。
func (c *Client) UpdateAvatar(ctx context.Context, fileName string, file io.Reader) (*model.User, error) {
	if file == nil {
		return nil, coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 头像文件为空")
	}
	var user model.User
	if err := c.sendMultipart(ctx, "PUT", PathProfile, nil, "avatar", fileName, file, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteAccount 注销账号。
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.send(ctx, "DELETE", PathProfileDelete, nil, nil)
}

// Logout 通知服务端会话结束。调用方应将失败视为尽力而为。
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, "POST", PathLogout, nil, nil)
}

// ForgotPassword 发起找回密码邮件。
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 邮箱为空")
	}
	return c.send(ctx, "POST", PathForgotPassword, map[string]string{"email": email}, nil)
}

// ResetPassword 用邮件中的重置凭证设置新密码。
func (c *Client) ResetPassword(ctx context.Context, resetID, secret, newPassword string) error {
	if resetID == "" || secret == "" {
		return coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 重置凭证不完整")
	}
	path := fmt.Sprintf("%s%s/%s/", PathResetPassword, resetID, secret)
	return c.send(ctx, "POST", path, map[string]string{"password": newPassword}, nil)
}

// VerifyEmail 完成邮箱验证。
func (c *Client) VerifyEmail(ctx context.Context, resetID, secret string) error {
	if resetID == "" || secret == "" {
		return coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 验证凭证不完整")
	}
	path := fmt.Sprintf("%s%s/%s/", PathActivate, resetID, secret)
	return c.get(ctx, path, nil, nil)
}
