package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Settings 合并参数的默认值，可由 SETTINGS_FILE 指定的 YAML 文件覆盖
// 请求中显式给出的字段优先于这里的默认值
type Settings struct {
	SilenceMs            int    `yaml:"silence_ms"`
	FadeMs               int    `yaml:"fade_ms"`
	ApplyCompression     bool   `yaml:"apply_compression"`
	CompressionPreset    string `yaml:"compression_preset"`
	OutputChannels       int    `yaml:"output_channels"`
	ProcessingEnabled    bool   `yaml:"processing_enabled"`
	Bitrate              string `yaml:"bitrate"`
	OutputFormat         string `yaml:"output_format"`
	TransformParallelism int    `yaml:"transform_parallelism"`
}

// MaxEnvelopeMs 静音与淡入淡出时长上限（毫秒）
const MaxEnvelopeMs = 10000

var bitratePattern = regexp.MustCompile(`^[0-9]+k$`)

// ValidBitrate 判断码率格式是否为 "192k" 形式
func ValidBitrate(b string) bool {
	return bitratePattern.MatchString(b)
}

// DefaultSettings 未提供设置文件时使用的默认值
func DefaultSettings() Settings {
	return Settings{
		SilenceMs:            0,
		FadeMs:               0,
		ApplyCompression:     false,
		CompressionPreset:    "default",
		OutputChannels:       2,
		ProcessingEnabled:    true,
		Bitrate:              "192k",
		OutputFormat:         "",
		TransformParallelism: 1,
	}
}

// LoadSettings 读取 YAML 设置文件，未出现的字段保留默认值
// path 为空时直接返回默认值
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

func validateSettings(s *Settings) error {
	if s.SilenceMs < 0 || s.SilenceMs > MaxEnvelopeMs {
		return fmt.Errorf("silence_ms must be between 0 and %d", MaxEnvelopeMs)
	}
	if s.FadeMs < 0 || s.FadeMs > MaxEnvelopeMs {
		return fmt.Errorf("fade_ms must be between 0 and %d", MaxEnvelopeMs)
	}
	if s.OutputChannels != 1 && s.OutputChannels != 2 {
		return fmt.Errorf("output_channels must be 1 or 2, got %d", s.OutputChannels)
	}
	if !ValidBitrate(s.Bitrate) {
		return fmt.Errorf("bitrate must look like 192k, got %q", s.Bitrate)
	}
	if s.TransformParallelism < 1 {
		return fmt.Errorf("transform_parallelism must be at least 1")
	}
	return nil
}
