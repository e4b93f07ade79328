// Package config 加载客户端配置。
// 鉴权头方案（Token/Bearer）与注册后是否自动登录在不同后端间并不一致，
// 因此都是配置项而非硬编码。
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/store"
)

// Duration 让 yaml 能解析 "10s" 这类时长写法。
type Duration time.Duration

// UnmarshalYAML 实现 yaml.Unmarshaler。
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "config: 时长格式非法", err)
	}
	*d = Duration(parsed)
	return nil
}

// Std 转换为标准库时长。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config 描述客户端全部可配置项。
type Config struct {
	// BaseURL 为后端 API 根地址，以 / 结尾。
	BaseURL string `yaml:"base_url"`
	// AuthScheme 为 Authorization 头前缀，常见取值 Token 或 Bearer。
	AuthScheme string `yaml:"auth_scheme"`
	// Timeout 为单次请求的整体超时，必须有限。
	Timeout Duration `yaml:"timeout"`
	// TokenFile 为令牌落盘路径，留空使用默认位置。
	TokenFile string `yaml:"token_file"`
	// RegisterAutoLogin 控制注册成功且后端返回令牌时是否直接建立会话。
	RegisterAutoLogin bool `yaml:"register_auto_login"`
	// RateLimitRPS 为客户端限速，0 表示不限速。
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		BaseURL:    "http://127.0.0.1:8000/api/",
		AuthScheme: "Token",
		Timeout:    Duration(10 * time.Second),
		TokenFile:  store.DefaultTokenPath(),
	}
}

// Load 从 YAML 文件加载配置，文件不存在时返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "config: 读取配置失败", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "config: 解析配置失败", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.BaseURL == "" {
		c.BaseURL = Default().BaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Token"
	}
	if c.Timeout <= 0 {
		c.Timeout = Default().Timeout
	}
	if c.TokenFile == "" {
		c.TokenFile = store.DefaultTokenPath()
	}
}
