package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lvdashuaibi/ledgervote/internal/api/graph"
	"github.com/lvdashuaibi/ledgervote/internal/api/rest"
	"github.com/lvdashuaibi/ledgervote/internal/archive"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	intkafka "github.com/lvdashuaibi/ledgervote/internal/kafka"
	"github.com/lvdashuaibi/ledgervote/internal/lock"
	"github.com/lvdashuaibi/ledgervote/internal/repository"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动GraphQL/REST服务",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "覆盖配置中的端口")
}

func serve(parent context.Context) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := client.NewHTTPClient(cfg.API, logger)
	if err != nil {
		logger.Fatalw("初始化后端客户端失败", "err", err)
	}
	logger.Infow("后端客户端初始化成功", "baseUrl", cfg.API.BaseURL)

	// 快照缓存（可选）
	var cache service.SnapshotCache
	if cfg.Redis.DataAddress != "" {
		redisRepo, err := repository.NewRedisRepository(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatalw("初始化Redis仓库失败", "err", err)
		}
		defer redisRepo.Close()
		cache = redisRepo
		logger.Info("Redis快照缓存初始化成功")
	}

	// 刷新事件（可选）
	var publisher service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := intkafka.NewProducer(ctx, cfg.Kafka, logger)
		if err != nil {
			logger.Fatalw("初始化Kafka生产者失败", "err", err)
		}
		defer producer.Close()
		publisher = producer
		logger.Info("Kafka生产者初始化成功")
	}

	election := service.NewElectionService(api, cache, publisher, logger)
	if err := election.RefreshAll(ctx); err != nil {
		logger.Warnw("首次拉取部分列表失败", "err", err)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := intkafka.NewConsumer(ctx, cfg.Kafka, election.InstanceID(), logger)
		if err != nil {
			logger.Fatalw("初始化Kafka消费者失败", "err", err)
		}
		consumer.StartConsuming(election.HandleRefreshEvent)
		defer consumer.Stop()
		logger.Info("Kafka消费者已启动")
	}

	// 历史归档（可选），只有持有锁的实例写入
	var stats graph.StatsSource
	if cfg.MySQL.Master != "" {
		mysqlRepo, err := repository.NewMySQLRepository(ctx, cfg.MySQL, logger)
		if err != nil {
			logger.Fatalw("初始化MySQL仓库失败", "err", err)
		}
		defer mysqlRepo.Close()

		distributedLock, err := lock.New(ctx, *cfg, logger)
		if err != nil {
			logger.Fatalw("初始化分布式锁失败", "err", err)
		}
		defer distributedLock.Close()

		archiver := archive.NewArchiver(election, mysqlRepo, distributedLock, cfg.Archive, logger)
		archiver.Start()
		defer archiver.Stop()
		stats = archiver
	}

	format := dateFormat(cfg)
	graphqlServer := graph.NewGraphQLServer(election, stats, format, cfg.GraphQL.Path)
	httpService := rest.NewService(fmt.Sprintf(":%d", cfg.Server.Port), election, graphqlServer, cfg.GraphQL.Path, format, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpService.Start()
	}()
	logger.Infow("ledgervote 已启动",
		"instance", election.InstanceID(),
		"graphql", fmt.Sprintf("http://localhost:%d%s", cfg.Server.Port, cfg.GraphQL.Path),
		"playground", fmt.Sprintf("http://localhost:%d/playground", cfg.Server.Port))

	select {
	case <-ctx.Done():
		logger.Info("正在关闭服务...")
	case err := <-errCh:
		if err != nil {
			logger.Errorw("HTTP服务异常退出", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpService.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("关闭HTTP服务失败", "err", err)
	}
}
