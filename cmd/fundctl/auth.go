package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/model"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "登录并持久化会话令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			user, err := a.ctrl.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, user, func(w io.Writer) {
				fmt.Fprintf(w, "已登录：%s <%s>\n", user.DisplayName(), user.Email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	cmd.Flags().StringVar(&password, "password", "", "密码")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "结束会话并清除本地令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			a.ctrl.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "已登出")
			return nil
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "展示当前会话状态与用户信息",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			session := a.ctrl.Snapshot()
			// 令牌不进入输出。
			view := struct {
				Status string      `json:"status"`
				User   *model.User `json:"user,omitempty"`
			}{Status: session.Status.String(), User: session.User}
			return printResult(cmd.OutOrStdout(), opts.JSON, view, func(w io.Writer) {
				fmt.Fprintf(w, "状态：%s\n", session.Status)
				if session.User != nil {
					fmt.Fprintf(w, "用户：%s <%s>\n", session.User.DisplayName(), session.User.Email)
				}
			})
		},
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var req fundapi.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "注册新账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			result, err := a.ctrl.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, result, func(w io.Writer) {
				if result.Detail != "" {
					fmt.Fprintln(w, result.Detail)
				}
				if a.ctrl.Snapshot().Authenticated() {
					fmt.Fprintln(w, "注册成功，已自动登录")
				} else {
					fmt.Fprintln(w, "注册成功")
				}
			})
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "用户名")
	cmd.Flags().StringVar(&req.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "密码")
	cmd.Flags().StringVar(&req.Password2, "password2", "", "确认密码（缺省同密码）")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "名")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "姓")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProfileCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "查看或更新个人资料",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "profile"); err != nil {
				return err
			}
			user, err := a.ctrl.RefreshProfile(cmd.Context())
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), opts.JSON, user)
		},
	}

	cmd.AddCommand(newProfileUpdateCommand(opts))
	cmd.AddCommand(newProfileAvatarCommand(opts))
	cmd.AddCommand(newProfileDeleteCommand(opts))
	return cmd
}

func newProfileUpdateCommand(opts *rootOptions) *cobra.Command {
	var update fundapi.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "更新个人资料字段",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "profile update"); err != nil {
				return err
			}
			user, err := a.ctrl.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), opts.JSON, user)
		},
	}

	cmd.Flags().StringVar(&update.FirstName, "first-name", "", "名")
	cmd.Flags().StringVar(&update.LastName, "last-name", "", "姓")
	cmd.Flags().StringVar(&update.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&update.Bio, "bio", "", "个人简介")
	return cmd
}

func newProfileAvatarCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <文件>",
		Short: "上传头像",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "profile avatar"); err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			user, err := a.ctrl.UpdateAvatar(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), opts.JSON, user)
		},
	}
}

func newProfileDeleteCommand(opts *rootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "注销账号（不可恢复）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("注销不可恢复，请附加 --yes 确认")
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "profile delete"); err != nil {
				return err
			}
			if err := a.ctrl.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "账号已注销")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "确认注销")
	return cmd
}

func newForgotPasswordCommand(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "发送找回密码邮件",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.RequestPasswordReset(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "重置邮件已发送，请查收")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCommand(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <凭证ID> <密钥>",
		Short: "用邮件中的重置凭证设置新密码",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.ConfirmPasswordReset(cmd.Context(), args[0], args[1], password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "密码已重置，请重新登录")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "新密码")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newVerifyEmailCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <凭证ID> <密钥>",
		Short: "完成邮箱验证",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.ctrl.VerifyEmail(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "邮箱验证成功")
			return nil
		},
	}
}

func printUser(w io.Writer, asJSON bool, user *model.User) error {
	return printResult(w, asJSON, user, func(w io.Writer) {
		fmt.Fprintf(w, "%s <%s>\n", user.DisplayName(), user.Email)
		if user.Bio != "" {
			fmt.Fprintf(w, "简介：%s\n", user.Bio)
		}
		if user.AvatarURL != "" {
			fmt.Fprintf(w, "头像：%s\n", user.AvatarURL)
		}
	})
}
