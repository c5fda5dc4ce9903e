package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-intake-go/internal/api/handler"
	"resume-intake-go/internal/api/router"
	"resume-intake-go/internal/config"
	"resume-intake-go/internal/extractor"
	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/pipeline"
	"resume-intake-go/internal/provider"
	"resume-intake-go/internal/storage"
	"resume-intake-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	logger.Info().Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, &cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储层失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储层初始化成功")

	docExtractor, err := extractor.NewDocumentExtractor(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档提取器失败")
	}

	chain := buildFailoverChain(cfg)
	resumeHandler := handler.NewResumeHandler(
		cfg,
		docExtractor,
		chain,
		storageManager.MinIO,
		dedupOrNil(storageManager),
		storageManager.MySQL,
		eventsOrNil(storageManager),
	)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize((cfg.Server.MaxUploadSizeMB+1)*1024*1024),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, cfg, resumeHandler)
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化zerolog全局日志，并把Hertz内部日志接到同一条输出上
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Logger = logger.Logger.With().Str("app", "resume-intake-go").Logger()

	glog.SetLogger(hertzadapter.From(logger.Logger))
}

// buildFailoverChain 按配置的优先级顺序组装提供商并创建故障转移链
// 列表顺序即优先级；disabled的提供商直接跳过，本地兜底不需要配置
func buildFailoverChain(cfg *config.Config) *pipeline.FailoverChain {
	httpClient := &http.Client{Timeout: 45 * time.Second}

	var providers []provider.Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch provider.Wire(pc.Wire) {
		case provider.WireGemini:
			providers = append(providers, provider.NewGeminiProvider(provider.GeminiConfig{
				Name:           pc.Name,
				Model:          pc.Model,
				APIKey:         pc.APIKey,
				Temperature:    pc.Temperature,
				MaxTokens:      pc.MaxTokens,
				MaxPromptChars: cfg.Pipeline.MaxPromptChars,
			}))
		default:
			providers = append(providers, provider.NewHTTPProvider(provider.HTTPProviderConfig{
				Name:           pc.Name,
				Wire:           provider.Wire(pc.Wire),
				Endpoint:       pc.Endpoint,
				Model:          pc.Model,
				APIKey:         pc.APIKey,
				Temperature:    pc.Temperature,
				MaxTokens:      pc.MaxTokens,
				MaxPromptChars: cfg.Pipeline.MaxPromptChars,
			}, httpClient))
		}
		logger.Info().Str("provider", pc.Name).Str("wire", pc.Wire).Msg("提供商已装配")
	}

	attemptTimeout := config.GetDuration(cfg.Pipeline.AttemptTimeout, pipeline.DefaultAttemptTimeout)
	return pipeline.NewFailoverChain(providers,
		pipeline.WithAttemptTimeout(attemptTimeout),
		pipeline.WithMinTextChars(cfg.Pipeline.MinTextChars),
	)
}

// dedupOrNil Redis降级运行时返回nil，处理器会跳过去重
func dedupOrNil(s *storage.Storage) handler.DedupStore {
	if s.Redis == nil {
		return nil
	}
	return s.Redis
}

// eventsOrNil RabbitMQ降级运行时返回nil，处理器会跳过事件发布
func eventsOrNil(s *storage.Storage) handler.EventPublisher {
	if s.RabbitMQ == nil {
		return nil
	}
	return s.RabbitMQ
}
