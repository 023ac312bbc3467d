package app

import (
	"context"
	"fmt"

	"github.com/YashLoriya02/storage-management/db"
	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/catalog"
	"github.com/YashLoriya02/storage-management/internal/extract"
	"github.com/YashLoriya02/storage-management/internal/ingest"
	"github.com/YashLoriya02/storage-management/internal/service"
	"github.com/YashLoriya02/storage-management/internal/storage"
	"github.com/YashLoriya02/storage-management/internal/tagger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Services is everything that runs next to the HTTP server
type Services struct {
	Deps  *internal.Deps
	Redis *redis.Client

	pool       *ingest.Pool
	asynqQueue *ingest.AsynqQueue
	asynqSrv   *asynq.Server
	asynqMux   *asynq.ServeMux
	notifier   *ingest.AMQPNotifier
	reconciler *service.Reconciler
	cron       *cron.Cron
}

func newObjectStore(ctx context.Context) (storage.ObjectStore, error) {
	switch t := viper.GetString("storage.type"); t {
	case "s3":
		return storage.NewS3(ctx)
	case "r2":
		return storage.NewR2(ctx)
	case "minio":
		return storage.NewMinio(ctx)
	case "memory":
		return storage.NewMemory("memory"), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", t)
	}
}

func newTagger(ctx context.Context) (*tagger.Tagger, error) {
	cfg := tagger.Config{
		MaxInputChars: viper.GetInt("tagger.max_input_chars"),
		Timeout:       viper.GetDuration("tagger.timeout"),
	}

	key := viper.GetString("tagger.api_key")
	if key == "" {
		return tagger.New(nil, cfg), nil
	}

	oracle, err := tagger.NewGeminiOracle(ctx, key, viper.GetString("tagger.model"))
	if err != nil {
		return nil, err
	}

	return tagger.New(oracle, cfg), nil
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
}

// Setup connects every dependency configured through viper. Nothing runs in
// the background until Start.
func Setup(ctx context.Context) (*Services, error) {
	gdb, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	objects, err := newObjectStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store, %w", err)
	}

	tg, err := newTagger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tagger, %w", err)
	}

	s := &Services{}

	if viper.GetString("ingest.queue") == "redis" || viper.GetString("cache.store") == "redis" {
		opt := redisOpt()
		s.Redis = redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})

		if err := s.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}
	}

	files := service.NewFiles(gdb, objects)

	o := &ingest.Orchestrator{
		Objects:        objects,
		Files:          files,
		Extractor:      extract.Default(extract.NewOCR(viper.GetString("ocr.command"), viper.GetString("ocr.language"))),
		Tagger:         tg,
		MaxKeywords:    viper.GetInt("tagger.max_keywords"),
		ExtractTimeout: viper.GetDuration("ingest.extract_timeout"),
	}

	if url := viper.GetString("events.amqp_url"); url != "" {
		s.notifier, err = ingest.NewAMQPNotifier(url)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event publisher, %w", err)
		}

		o.Notifier = s.notifier
	}

	d := &internal.Deps{
		DB:            gdb,
		Objects:       objects,
		Files:         files,
		Catalog:       catalog.New(gdb, viper.GetInt64("storage.total_capacity")),
		Orchestrator:  o,
		Cache:         newCacheStore(s.Redis),
		MaxUploadSize: viper.GetInt64("upload.max_size"),
		PresignTTL:    viper.GetDuration("storage.presign_ttl"),
	}

	workers := viper.GetInt("ingest.workers")

	if viper.GetString("ingest.queue") == "redis" {
		s.asynqQueue = ingest.NewAsynqQueue(redisOpt())
		s.asynqSrv, s.asynqMux = ingest.NewAsynqServer(redisOpt(), o, workers)
		d.Queue = s.asynqQueue
	} else {
		s.pool = ingest.NewPool(o, workers, viper.GetInt("ingest.queue_size"))
		d.Queue = s.pool
	}

	s.reconciler = &service.Reconciler{DB: gdb, Objects: objects}
	s.Deps = d

	return s, nil
}

// Start runs the ingestion workers and the orphan reconciler
func (s *Services) Start() error {
	if s.pool != nil {
		s.pool.Start()
	}

	if s.asynqSrv != nil {
		if err := s.asynqSrv.Start(s.asynqMux); err != nil {
			return fmt.Errorf("failed to start ingestion workers, %w", err)
		}
	}

	c, err := service.StartReconciler(viper.GetString("storage.reconcile_schedule"), s.reconciler)
	if err != nil {
		return err
	}
	s.cron = c

	return nil
}

// Close stops the background work, letting queued in-process jobs finish
func (s *Services) Close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	if s.pool != nil {
		s.pool.Close()
	}

	if s.asynqSrv != nil {
		s.asynqSrv.Shutdown()
	}

	if s.asynqQueue != nil {
		if err := s.asynqQueue.Close(); err != nil {
			zap.L().Warn("Failed to close queue client", zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.Close()
	}

	if s.Redis != nil {
		s.Redis.Close()
	}
}
