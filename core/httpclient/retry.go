package httpclient

import (
	"errors"
	"net/http"
	"time"
)

// RetryPolicy 定义重试策略。
type RetryPolicy interface {
	ShouldRetry(req *http.Request, resp *http.Response, err error, attempt int) (bool, time.Duration)
}

// RetryConfig 配置指数退避重试。
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     Logger
}

// ExponentialBackoffRetry 实现指数退避重试。
// 仅重试服务端错误与网络故障；4xx（含认证失败）是终态，
// 认证失败由响应钩子触发强制登出，不在传输层重试。
type ExponentialBackoffRetry struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     Logger
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// NewExponentialBackoffRetry 创建重试策略。
func NewExponentialBackoffRetry(cfg RetryConfig) *ExponentialBackoffRetry {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	return &ExponentialBackoffRetry{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		logger:     logger,
	}
}

// ShouldRetry 根据错误类型、状态码决定是否重试。
func (r *ExponentialBackoffRetry) ShouldRetry(req *http.Request, resp *http.Response, err error, attempt int) (bool, time.Duration) {
	if r == nil {
		return false, 0
	}
	if attempt >= r.maxRetries {
		return false, 0
	}
	delay := r.backoff(attempt)

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			// 超时交由调用方归类为临时故障，重试会拉长等待
			return false, 0
		}
		r.logger.Debugf("网络错误，第 %d 次重试", attempt+1)
		return true, delay
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusInternalServerError {
			r.logger.Debugf("服务端错误(status=%d)，第 %d 次重试", apiErr.Status, attempt+1)
			return true, delay
		}
		return false, 0
	}

	return false, 0
}

func (r *ExponentialBackoffRetry) backoff(attempt int) time.Duration {
	base := r.baseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	max := r.maxDelay
	if max <= 0 {
		max = 2 * time.Second
	}
	delay := base << attempt
	if delay > max {
		delay = max
	}
	return delay
}
