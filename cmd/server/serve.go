package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"news-rag-go/internal/config"
	"news-rag-go/internal/handler"
	"news-rag-go/internal/pipeline"
	"news-rag-go/internal/repository"
	"news-rag-go/internal/service"
	"news-rag-go/internal/vectorstore"
	"news-rag-go/pkg/database"
	"news-rag-go/pkg/embedding"
	"news-rag-go/pkg/kafka"
	"news-rag-go/pkg/llm"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/storage"

	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Ingest the seed corpus and run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*cfgPath)
		},
	}
}

func runServer(cfgPath string) error {
	// 1. 初始化配置
	config.Init(cfgPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化 Redis，连接失败不致命，由会话缓存按策略处理
	redisClient, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.Error("Redis 配置无效", err)
		return err
	}
	defer redisClient.Close()

	// 4. 初始化 Repository 与 Service (依赖注入)
	sessionCache := service.NewSessionCache(
		repository.NewRedisSessionRepository(redisClient),
		repository.NewMemorySessionRepository(),
		service.PolicyFor(cfg.Redis.Required),
		cfg.Redis.TTL(),
		cfg.Redis.OpTimeout(),
	)
	log.Infow("会话缓存初始化成功", "policy", sessionCache.Policy().String(), "ttl", cfg.Redis.TTL())

	gateway := embedding.NewGatewayFromConfig(cfg.Embedding)
	log.Infow("Embedding 提供方", "providers", gateway.Providers())
	store := vectorstore.New()
	processor := pipeline.NewProcessor(gateway, store, cfg.Pipeline.IngestTimeout())

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(cfg.LLM)
	} else {
		log.Info("未配置 LLM 密钥, 回答将直接返回检索结果")
	}
	answerService := service.NewAnswerService(llmClient, cfg.LLM.Timeout(), cfg.Server.IsProduction())
	searchService := service.NewSearchService(gateway, store, cfg.Pipeline.RetrieveTimeout())
	chatService := service.NewChatService(sessionCache, searchService, answerService, cfg.Pipeline.TopK, cfg.Pipeline.OverallTimeout())

	// 5. 启动时入库，失败则退出，不以空语料提供服务
	if err := ingestSeed(ctx, cfg, processor); err != nil {
		log.Error("启动时入库失败", err)
		return err
	}

	// 6. 启动后台 Kafka 消费者
	if cfg.Kafka.Brokers != "" {
		go kafka.StartConsumer(ctx, cfg.Kafka, processor)
	}

	// 7. 创建路由引擎并注册路由
	router := handler.NewRouter(handler.RouterDeps{
		Mode:         cfg.Server.Mode,
		Sessions:     sessionCache,
		Chat:         chatService,
		Search:       searchService,
		Documents:    store,
		Ingester:     processor,
		RequireRedis: cfg.Redis.Required,
		IsProduction: cfg.Server.IsProduction(),
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Error("HTTP 服务监听失败", err)
		return err
	case <-ctx.Done():
	}
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP 服务器关闭失败", err)
		return err
	}
	log.Info("服务已优雅关闭")
	return nil
}

// ingestSeed 加载种子文章（MinIO 或内置样例）并写入向量库。
func ingestSeed(ctx context.Context, cfg config.Config, processor *pipeline.Processor) error {
	var loader pipeline.SeedLoader
	if cfg.MinIO.Endpoint != "" {
		if err := storage.InitMinIO(ctx, cfg.MinIO); err != nil {
			return err
		}
		loader = storage.NewSeedStore(storage.MinioClient, cfg.MinIO)
	}
	docs, source, err := pipeline.LoadSeed(ctx, loader)
	if err != nil {
		return err
	}
	_, err = processor.Ingest(ctx, docs, source)
	return err
}
