package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// APIError 表示后端返回的业务错误，兼容 DRF 风格的三种错误体：
// {"detail": "..."}、{"non_field_errors": [...]} 与字段名到消息列表的映射。
type APIError struct {
	Status   int
	Detail   string
	NonField []string
	Fields   map[string][]string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if msg := e.FirstMessage(); msg != "" {
		return fmt.Sprintf("api(%d): %s", e.Status, msg)
	}
	return fmt.Sprintf("http 状态码: %d", e.Status)
}

// FirstMessage 返回最相关的一条人类可读消息：
// detail 优先，其次 non_field_errors 首条，最后按字段名排序取首个字段错误。
func (e *APIError) FirstMessage() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.NonField) > 0 {
		return e.NonField[0]
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msgs := e.Fields[k]; len(msgs) > 0 {
				return fmt.Sprintf("%s: %s", k, msgs[0])
			}
		}
	}
	return ""
}

// FieldMessages 返回指定字段的全部校验消息。
func (e *APIError) FieldMessages(field string) []string {
	if e == nil || e.Fields == nil {
		return nil
	}
	return e.Fields[field]
}

// IsUnauthorized 判断是否为 401 认证失败。
func (e *APIError) IsUnauthorized() bool {
	return e != nil && e.Status == http.StatusUnauthorized
}

// HasFieldErrors 判断错误体是否携带字段级校验消息。
func (e *APIError) HasFieldErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// NetworkError 包装底层网络错误，便于区分临时故障与认证失败。
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("网络错误: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout 判断底层错误是否为超时。
func (e *NetworkError) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	var nerr net.Error
	if errors.As(e.Err, &nerr) {
		return nerr.Timeout()
	}
	// http.Client 整体超时的错误信息会携带该标记
	return strings.Contains(e.Err.Error(), "Client.Timeout")
}

// DecodeError 表示响应解码失败。
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("解码失败(status=%d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
