package main

import (
	"fmt"
	"log/slog"

	"github.com/houzhh15/audiomerge/internal/audit"
	"github.com/houzhh15/audiomerge/internal/config"
	"github.com/houzhh15/audiomerge/internal/executor"
	"github.com/houzhh15/audiomerge/internal/fetch"
	"github.com/houzhh15/audiomerge/internal/media"
	"github.com/houzhh15/audiomerge/internal/pipeline"
	"github.com/houzhh15/audiomerge/internal/publish"
	"github.com/houzhh15/audiomerge/internal/workspace"
	"github.com/houzhh15/audiomerge/pkg/logger"
)

// app 持有一次进程生命周期内共享的组件
type app struct {
	cfg        *config.Config
	settings   config.Settings
	logger     *slog.Logger
	executor   executor.Executor
	controller *pipeline.Controller
	auditor    *audit.Logger
}

// loadRuntime 读取并校验环境配置、初始化全局日志、加载设置文件
func loadRuntime() (*config.Config, config.Settings, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, config.Settings{}, nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, config.Settings{}, nil, err
	}

	env := "dev"
	if cfg.IsProduction() {
		env = "prod"
	}
	log, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: env,
		File:        cfg.Log.File,
	})
	if err != nil {
		return nil, config.Settings{}, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	settings, err := config.LoadSettings(cfg.Media.SettingsFile)
	if err != nil {
		return nil, config.Settings{}, nil, err
	}
	return cfg, settings, log, nil
}

// newHost 按 HOST_BACKEND 选择发布目标
func newHost(cfg config.HostConfig) (publish.Host, error) {
	switch cfg.Backend {
	case "cloudinary":
		return publish.NewCloudinaryHost(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	case "dir":
		return publish.NewDirHost(cfg.Dir, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown host backend: %s", cfg.Backend)
	}
}

// buildApp 组装执行器、媒体工具、工作区、下载器、发布器与控制器
func buildApp(cfg *config.Config, settings config.Settings, log *slog.Logger) (*app, error) {
	execConfig := executor.Config{
		BinaryPaths: map[string]string{
			"ffmpeg":  cfg.Media.FFmpegPath,
			"ffprobe": cfg.Media.FFprobePath,
		},
		DefaultTimeout:  cfg.Media.ToolTimeout,
		AllowedCommands: media.Commands,
		MaxConcurrent:   cfg.Media.MaxConcurrentTools,
	}
	exec := executor.NewLimitedExecutor(executor.NewLocalExecutor(execConfig), execConfig, log)

	workspaces, err := workspace.NewManager(cfg.Media.WorkDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare work dir: %w", err)
	}

	host, err := newHost(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}
	publisher := publish.NewPublisher(host, publish.Config{
		Folder:       cfg.Host.Folder,
		PurgePrefix:  cfg.Host.PurgePrefix,
		PurgeEnabled: cfg.Host.PurgeEnabled,
	}, log)

	a := &app{cfg: cfg, settings: settings, logger: log, executor: exec}

	deps := pipeline.Dependencies{
		Workspaces: workspaces,
		Fetcher:    fetch.New(cfg.Fetch.Timeout, cfg.Fetch.MaxDownloadBytes),
		Toolkit:    media.NewFFmpegToolkit(exec),
		Publisher:  publisher,
		Settings:   settings,
		Limits: pipeline.Limits{
			MaxFiles:       cfg.Server.MaxFiles,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		Logger: log,
	}
	if cfg.Log.AuditPath != "" {
		a.auditor = audit.NewLogger(cfg.Log.AuditPath)
		deps.Auditor = a.auditor
	}
	a.controller = pipeline.NewController(deps)
	return a, nil
}

func (a *app) Close() {
	if a.auditor != nil {
		if err := a.auditor.Close(); err != nil {
			a.logger.Warn("failed to close audit log", "error", err)
		}
	}
}
