// Package fundapi 封装众筹后端的 REST 接口。
// 所有方法接收 context，按端点返回类型化结果；鉴权头由外部注入的中间件负责，
// 本包不读写令牌。
package fundapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/httpclient"
)

// DefaultBaseURL 为本地开发后端地址。
const DefaultBaseURL = "http://127.0.0.1:8000/api/"

// Client 统一封装众筹 API 调用。
type Client struct {
	http    *httpclient.Client
	logger  httpclient.Logger
	baseURL string
}

// Option 自定义客户端配置。
type Option func(*Client)

// WithHTTPClient 注入自定义 httpclient.Client。
func WithHTTPClient(cli *httpclient.Client) Option {
	return func(c *Client) {
		if cli != nil {
			c.http = cli
		}
	}
}

// WithLogger 注入日志接口。
func WithLogger(logger httpclient.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL 替换默认后端地址。
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			if !strings.HasSuffix(base, "/") {
				base += "/"
			}
			c.baseURL = base
		}
	}
}

// NewClient 创建默认客户端。
func NewClient(opts ...Option) *Client {
	cli := &Client{
		http:    httpclient.NewClient(),
		logger:  httpclient.NopLogger{},
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cli)
		}
	}
	if cli.http == nil {
		cli.http = httpclient.NewClient()
	}
	if cli.logger == nil {
		cli.logger = httpclient.NopLogger{}
	}
	return cli
}

// HTTP 暴露底层客户端，便于外部挂载中间件与响应钩子。
func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

func (c *Client) endpoint(path string, query url.Values) string {
	full := c.baseURL + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 构造请求失败", err)
	}
	return c.http.Do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 序列化请求体失败", err)
		}
		payload = data
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), reader)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 构造请求失败", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	return c.http.Do(req, out)
}

// sendMultipart 以 multipart/form-data 上传字段与单个文件。
func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, val := range fields {
		if err := writer.WriteField(key, val); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 写入表单字段失败", err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 创建文件分块失败", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 读取文件失败", err)
		}
	}
	if err := writer.Close(); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 关闭表单失败", err)
	}
	payload := buf.Bytes()
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "fundapi: 构造请求失败", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	return c.http.Do(req, out)
}
