package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger 由外部注入，满足 core 层无输出原则。
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger 默认空日志实现。
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Errorf(string, ...any) {}

// DefaultTimeout 是未显式配置时的请求超时。
// 必须有限，否则会话引导流程可能永远停留在初始化状态。
const DefaultTimeout = 10 * time.Second

// Client 为统一 HTTP 客户端封装。
type Client struct {
	HTTP    *http.Client
	Prepare PrepareChain
	Hooks   HookChain
	Retry   RetryPolicy
	Limiter RateLimiter
	Logger  Logger
}

// Option 配置客户端。
type Option func(*Client)

// WithHTTPClient 自定义 http.Client。
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.HTTP = httpClient
	}
}

// WithTimeout 设置整体请求超时。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.HTTP != nil && d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

// WithRetryPolicy 设置重试策略。
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.Retry = policy
	}
}

// WithRateLimiter 设置限流。
func WithRateLimiter(limiter RateLimiter) Option {
	return func(c *Client) {
		c.Limiter = limiter
	}
}

// WithLogger 注入日志。
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

// WithMiddlewares 设置请求中间件链。
func WithMiddlewares(mw ...Middleware) Option {
	return func(c *Client) {
		c.Prepare = append(c.Prepare, mw...)
	}
}

// WithResponseHooks 设置响应观察钩子链。
func WithResponseHooks(hooks ...ResponseHook) Option {
	return func(c *Client) {
		c.Hooks = append(c.Hooks, hooks...)
	}
}

// NewClient 创建带默认超时与重试的客户端。
func NewClient(opts ...Option) *Client {
	client := &Client{
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Prepare: PrepareChain{},
		Hooks:   HookChain{},
		Logger:  NopLogger{},
	}
	client.Retry = NewExponentialBackoffRetry(DefaultRetryConfig())
	for _, opt := range opts {
		opt(client)
	}
	if client.HTTP == nil {
		client.HTTP = &http.Client{Timeout: DefaultTimeout}
	}
	if client.HTTP.Timeout <= 0 {
		client.HTTP.Timeout = DefaultTimeout
	}
	if client.Logger == nil {
		client.Logger = NopLogger{}
	}
	return client
}

// Use 添加中间件。
func (c *Client) Use(mw ...Middleware) {
	c.Prepare = append(c.Prepare, mw...)
}

// Observe 添加响应钩子。
func (c *Client) Observe(hooks ...ResponseHook) {
	c.Hooks = append(c.Hooks, hooks...)
}

// Do 发送请求并按需解码 JSON，包含重试、限流、中间件与响应钩子。
func (c *Client) Do(req *http.Request, out any) error {
	if req == nil {
		return errors.New("httpclient: 请求为空")
	}
	if c.HTTP == nil {
		return errors.New("httpclient: http.Client 未配置")
	}
	attempt := 0
	for {
		clonedReq, cloneErr := c.cloneRequest(req, attempt)
		if cloneErr != nil {
			return cloneErr
		}
		resp, err := c.execute(clonedReq, out)
		if err == nil {
			return nil
		}
		if c.Retry == nil {
			return err
		}
		retry, wait := c.Retry.ShouldRetry(clonedReq, resp, err, attempt)
		if !retry {
			return err
		}
		attempt++
		if wait > 0 {
			time.Sleep(wait)
		}
	}
}

func (c *Client) execute(req *http.Request, out any) (*http.Response, error) {
	if c.Prepare != nil {
		if err := c.Prepare.Apply(req); err != nil {
			return nil, err
		}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context(), req); err != nil {
			return nil, err
		}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if c.Hooks != nil {
		c.Hooks.Apply(req, resp)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, decodeAPIError(resp.StatusCode, resp.Body)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return resp, nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber() // 保留数字精度
	if decodeErr := dec.Decode(out); decodeErr != nil {
		if decodeErr == io.EOF {
			// 空响应体，视为成功
			return resp, nil
		}
		return resp, &DecodeError{Status: resp.StatusCode, Err: decodeErr}
	}
	return resp, nil
}

// decodeAPIError 将 DRF 风格的错误体解析为 APIError。
// 无法解析时退化为仅携带状态码的错误。
func decodeAPIError(status int, body io.Reader) *APIError {
	apiErr := &APIError{Status: status}
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return apiErr
	}
	for key, val := range raw {
		switch key {
		case "detail", "error":
			var s string
			if json.Unmarshal(val, &s) == nil && apiErr.Detail == "" {
				apiErr.Detail = s
			}
		case "non_field_errors":
			var list []string
			if json.Unmarshal(val, &list) == nil {
				apiErr.NonField = append(apiErr.NonField, list...)
			}
		default:
			msgs := decodeMessages(val)
			if len(msgs) == 0 {
				continue
			}
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string][]string)
			}
			apiErr.Fields[key] = append(apiErr.Fields[key], msgs...)
		}
	}
	return apiErr
}

func decodeMessages(val json.RawMessage) []string {
	var list []string
	if json.Unmarshal(val, &list) == nil {
		return list
	}
	var s string
	if json.Unmarshal(val, &s) == nil && s != "" {
		return []string{s}
	}
	return nil
}

func (c *Client) cloneRequest(req *http.Request, attempt int) (*http.Request, error) {
	cloned := req.Clone(req.Context())
	cloned.Header = req.Header.Clone()
	cloned.GetBody = req.GetBody
	cloned.ContentLength = req.ContentLength
	if req.Body != nil {
		if attempt == 0 {
			cloned.Body = req.Body
		} else {
			if req.GetBody == nil {
				return nil, fmt.Errorf("httpclient: 请求体不可重试")
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			cloned.Body = body
		}
	}
	return cloned, nil
}
