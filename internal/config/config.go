package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 统一配置结构，启动时构建一次后只读传递
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Media  MediaConfig
	Fetch  FetchConfig
	Host   HostConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env            string // dev, staging, production
	Port           string
	RequestTimeout time.Duration
	MaxFiles       int
	RateLimitRPS   float64 // 0 表示不限流
	RateLimitBurst int
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string // debug, info, warn, error
	File      string
	AuditPath string
}

// MediaConfig 外部音频工具与工作目录配置
type MediaConfig struct {
	FFmpegPath         string
	FFprobePath        string
	ToolTimeout        time.Duration
	MaxConcurrentTools int
	WorkDir            string
	SettingsFile       string
}

// FetchConfig 远程下载配置
type FetchConfig struct {
	Timeout          time.Duration
	MaxDownloadBytes int64
}

// HostConfig 发布目标配置
type HostConfig struct {
	Backend      string // cloudinary, dir
	Dir          string
	BaseURL      string
	CloudName    string
	APIKey       string
	APISecret    string
	Folder       string
	PurgePrefix  string
	PurgeEnabled bool
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	p := &envParser{}

	cfg := &Config{
		Server: ServerConfig{
			Env:            getEnv("ENV", "dev"),
			Port:           getEnv("PORT", "3000"),
			RequestTimeout: p.duration("REQUEST_TIMEOUT", 10*time.Minute),
			MaxFiles:       p.int("MAX_FILES", 50),
			RateLimitRPS:   p.float("RATE_LIMIT_RPS", 0),
			RateLimitBurst: p.int("RATE_LIMIT_BURST", 5),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			File:      getEnv("LOG_FILE", ""),
			AuditPath: getEnv("AUDIT_LOG_PATH", ""),
		},
		Media: MediaConfig{
			FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:        getEnv("FFPROBE_PATH", "ffprobe"),
			ToolTimeout:        p.duration("TOOL_TIMEOUT", 5*time.Minute),
			MaxConcurrentTools: p.int("MAX_CONCURRENT_TOOLS", 4),
			WorkDir:            getEnv("WORK_DIR", os.TempDir()),
			SettingsFile:       getEnv("SETTINGS_FILE", ""),
		},
		Fetch: FetchConfig{
			Timeout:          p.duration("FETCH_TIMEOUT", 2*time.Minute),
			MaxDownloadBytes: p.int64("MAX_DOWNLOAD_BYTES", 200<<20),
		},
		Host: HostConfig{
			Backend:      getEnv("HOST_BACKEND", "cloudinary"),
			Dir:          getEnv("HOST_DIR", "./published"),
			BaseURL:      getEnv("HOST_BASE_URL", ""),
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:       getEnv("PUBLISH_FOLDER", "merged-audio"),
			PurgePrefix:  getEnv("PURGE_PREFIX", "merged-audio/tmp"),
			PurgeEnabled: p.bool("PURGE_ENABLED", true),
		},
	}

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed:\n  - %s", strings.Join(p.errs, "\n  - "))
	}
	return cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 2. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 3. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 4. 超时与限额
	if cfg.Server.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}
	if cfg.Media.ToolTimeout <= 0 {
		errors = append(errors, "TOOL_TIMEOUT must be positive")
	}
	if cfg.Fetch.Timeout <= 0 {
		errors = append(errors, "FETCH_TIMEOUT must be positive")
	}
	if cfg.Server.MaxFiles < 1 {
		errors = append(errors, "MAX_FILES must be at least 1")
	}
	if cfg.Media.MaxConcurrentTools < 1 {
		errors = append(errors, "MAX_CONCURRENT_TOOLS must be at least 1")
	}
	if cfg.Fetch.MaxDownloadBytes <= 0 {
		errors = append(errors, "MAX_DOWNLOAD_BYTES must be positive")
	}
	if cfg.Server.RateLimitRPS < 0 {
		errors = append(errors, "RATE_LIMIT_RPS cannot be negative")
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst < 1 {
		errors = append(errors, "RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	// 5. 发布目标
	switch cfg.Host.Backend {
	case "cloudinary":
		if cfg.Host.CloudName == "" || cfg.Host.APIKey == "" || cfg.Host.APISecret == "" {
			errors = append(errors, "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary backend")
		}
	case "dir":
		if cfg.Host.Dir == "" {
			errors = append(errors, "HOST_DIR is required for the dir backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid HOST_BACKEND: %s (must be: cloudinary, dir)", cfg.Host.Backend))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Request Timeout: %s
  Max Files: %d
  Rate Limit: %.2f rps (burst %d)
  Logging:
    - Level: %s
    - File: %s
    - Audit: %s
  Media:
    - ffmpeg: %s
    - ffprobe: %s
    - Tool Timeout: %s
    - Max Concurrent Tools: %d
    - Work Dir: %s
    - Settings File: %s
  Fetch:
    - Timeout: %s
    - Max Download Bytes: %d
  Host:
    - Backend: %s
    - Cloud Name: %s
    - API Key: %s
    - API Secret: %s
    - Folder: %s
    - Purge Prefix: %s (enabled: %t)`,
		c.Server.Env,
		c.Server.Port,
		c.Server.RequestTimeout,
		c.Server.MaxFiles,
		c.Server.RateLimitRPS,
		c.Server.RateLimitBurst,
		c.Log.Level,
		orUnset(c.Log.File),
		orUnset(c.Log.AuditPath),
		c.Media.FFmpegPath,
		c.Media.FFprobePath,
		c.Media.ToolTimeout,
		c.Media.MaxConcurrentTools,
		c.Media.WorkDir,
		orUnset(c.Media.SettingsFile),
		c.Fetch.Timeout,
		c.Fetch.MaxDownloadBytes,
		c.Host.Backend,
		orUnset(c.Host.CloudName),
		maskSecret(c.Host.APIKey),
		maskSecret(c.Host.APISecret),
		c.Host.Folder,
		c.Host.PurgePrefix,
		c.Host.PurgeEnabled,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envParser 解析带类型的环境变量并收集错误
type envParser struct {
	errs []string
}

func (p *envParser) fail(key, value, want string) {
	p.errs = append(p.errs, fmt.Sprintf("invalid %s value: %q (expected %s)", key, value, want))
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, "duration such as 30s or 5m")
		return def
	}
	return d
}

func (p *envParser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, "integer")
		return def
	}
	return n
}

func (p *envParser) int64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(key, raw, "integer")
		return def
	}
	return n
}

func (p *envParser) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, "number")
		return def
	}
	return f
}

func (p *envParser) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, "true or false")
		return def
	}
	return b
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}
