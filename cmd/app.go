package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fyerfyer/finsight/config"
	"github.com/fyerfyer/finsight/internal/cache"
	"github.com/fyerfyer/finsight/internal/database"
	"github.com/fyerfyer/finsight/internal/repository"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/fyerfyer/finsight/pkg/storage"
	"github.com/fyerfyer/finsight/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// app 服务端和工作者共用的组件
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	queue    *taskqueue.RedisQueue
	files    *services.FileService
	analysis *services.AnalysisService
	closers  []io.Closer
}

// newApp 按配置初始化数据库、存储、缓存和任务队列
// requireQueue为true时即使配置未启用也创建任务队列
func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger, requireQueue bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, closerFunc(database.Close))

	store, err := storage.New(ctx, storage.Config{
		Type:  cfg.Storage.Type,
		Local: storage.LocalConfig{Path: cfg.Storage.Path},
		Minio: storage.MinioConfig{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKey:       cfg.Storage.AccessKey,
			SecretKey:       cfg.Storage.SecretKey,
			UseSSL:          cfg.Storage.UseSSL,
			Bucket:          cfg.Storage.Bucket,
			ConnectAttempts: 3,
		},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var results *cache.ResultCache
	if cfg.Cache.Enable {
		c, err := cache.NewCache(cache.Config{
			Type:            cfg.Cache.Type,
			RedisAddr:       cfg.Cache.Address,
			RedisPassword:   cfg.Cache.Password,
			RedisDB:         cfg.Cache.DB,
			Namespace:       cfg.Cache.Namespace,
			DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
			CleanupInterval: 10 * time.Minute,
			ConnectAttempts: 3,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		if closer, ok := c.(io.Closer); ok {
			a.closers = append(a.closers, closer)
		}
		results = cache.NewResultCache(c, time.Duration(cfg.Cache.TTL)*time.Second)
	}

	if cfg.Queue.Enable || requireQueue {
		a.queue, err = taskqueue.NewRedisQueue(queueConfig(cfg), taskqueue.WithLogger(logger))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		a.closers = append(a.closers, a.queue)
	}

	analysisOpts, err := cfg.ToAnalysisOptions()
	if err != nil {
		a.Close()
		return nil, err
	}

	db := database.MustDB()
	fileRepo := repository.NewFileRepositoryWithDB(db)
	analysisRepo := repository.NewAnalysisRepositoryWithDB(db)

	a.files = services.NewFileService(store, fileRepo,
		services.WithFileLogger(logger),
		services.WithMaxUploadSize(cfg.Upload.MaxSize),
		services.WithFileResultCache(results),
	)

	serviceOpts := []services.AnalysisOption{
		services.WithLogger(logger),
		services.WithAnalysisOptions(analysisOpts),
		services.WithResultCache(results),
		services.WithTimeout(cfg.Analysis.Timeout),
	}
	if a.queue != nil {
		serviceOpts = append(serviceOpts, services.WithTaskQueue(a.queue))
	}
	a.analysis = services.NewAnalysisService(store, fileRepo, analysisRepo, serviceOpts...)

	logger.WithFields(logrus.Fields{
		"storage": cfg.Storage.Type,
		"cache":   cfg.Cache.Enable,
		"queue":   a.queue != nil,
	}).Info("Application initialized")
	return a, nil
}

// Close 按创建的逆序释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to release resource")
		}
	}
	a.closers = nil
}

func queueConfig(cfg *config.Config) *taskqueue.Config {
	qc := taskqueue.DefaultConfig()
	qc.RedisAddr = cfg.Queue.RedisAddr
	qc.RedisPassword = cfg.Queue.RedisPassword
	qc.RedisDB = cfg.Queue.RedisDB
	if cfg.Queue.Concurrency > 0 {
		qc.Concurrency = cfg.Queue.Concurrency
	}
	qc.RetryLimit = cfg.Queue.RetryLimit
	if cfg.Queue.RetryDelay > 0 {
		qc.RetryDelay = time.Duration(cfg.Queue.RetryDelay) * time.Second
	}
	if cfg.Queue.TaskExpiry > 0 {
		qc.TaskExpiry = time.Duration(cfg.Queue.TaskExpiry) * time.Hour
	}
	return qc
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
