package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dnslin/crowdfund-desktop/core/auth"
	"github.com/dnslin/crowdfund-desktop/core/config"
	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/httpclient"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

const version = "0.1.0"

// rootOptions 保存全局标志。
type rootOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fundctl",
		Short:         "众筹平台命令行客户端",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "配置文件路径（YAML，缺省使用内置默认值）")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "输出调试日志")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "以 JSON 输出结果")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newProfileCommand(opts))
	cmd.AddCommand(newForgotPasswordCommand(opts))
	cmd.AddCommand(newResetPasswordCommand(opts))
	cmd.AddCommand(newVerifyEmailCommand(opts))
	cmd.AddCommand(newProjectsCommand(opts))
	cmd.AddCommand(newDonationsCommand(opts))

	return cmd
}

// app 为一次命令执行组装好的完整调用链。
type app struct {
	cfg    config.Config
	tokens *store.FileTokenStore
	api    *fundapi.Client
	ctrl   *auth.Controller
}

// newApp 按配置装配 HTTP 客户端、API 客户端与会话控制器：
// 出站请求带请求 ID 与鉴权头，非凭证端点的 401 触发强制登出。
func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(opts.Verbose)
	tokens := store.NewFileTokenStore(cfg.TokenFile)

	httpCli := httpclient.NewClient(
		httpclient.WithTimeout(cfg.Timeout.Std()),
		httpclient.WithLogger(logger),
		httpclient.WithMiddlewares(
			httpclient.WithUserAgent("fundctl/"+version),
			httpclient.WithRequestID(),
			auth.TokenMiddleware(tokens, cfg.AuthScheme),
		),
	)
	if cfg.RateLimitRPS > 0 {
		httpCli.Limiter = httpclient.NewTokenBucketLimiter(cfg.RateLimitRPS, 1)
	}

	api := fundapi.NewClient(
		fundapi.WithHTTPClient(httpCli),
		fundapi.WithBaseURL(cfg.BaseURL),
		fundapi.WithLogger(logger),
	)
	ctrl := auth.NewController(api, tokens,
		auth.WithLogger(logger),
		auth.WithRegisterAutoLogin(cfg.RegisterAutoLogin),
	)
	// 响应钩子在控制器之后挂载，二者共享同一底层客户端。
	httpCli.Observe(auth.UnauthorizedHook(ctrl))

	return &app{cfg: cfg, tokens: tokens, api: api, ctrl: ctrl}, nil
}

// requireAuthenticated 引导会话后用路由守卫判定受保护操作能否继续。
func (a *app) requireAuthenticated(ctx context.Context, op string) error {
	if err := a.ctrl.Bootstrap(ctx); err != nil {
		return err
	}
	decision := auth.Decide(a.ctrl.Status(), auth.RequiresAuthenticated, op, "")
	if decision.Action == auth.ActionRedirectToLogin {
		return fmt.Errorf("%s 需要登录，请先执行 fundctl login", decision.Target)
	}
	return nil
}

// slogLogger 把 slog 适配成 core 层的日志接口。
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debugf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s slogLogger) Errorf(format string, args ...any) {
	s.l.Error(fmt.Sprintf(format, args...))
}

func newLogger(verbose bool) httpclient.Logger {
	if !verbose {
		return httpclient.NopLogger{}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slogLogger{l: slog.New(handler)}
}

// printResult 按 --json 标志输出结构化结果或调用文本渲染函数。
func printResult(w io.Writer, asJSON bool, v any, text func(io.Writer)) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
