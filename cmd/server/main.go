package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/livechat/api/handler"
	"github.com/fastygo/livechat/domain"
	claimdomain "github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/internal/config"
	"github.com/fastygo/livechat/internal/infrastructure/monitor"
	"github.com/fastygo/livechat/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/livechat/internal/infrastructure/postgres"
	"github.com/fastygo/livechat/internal/infrastructure/publisher"
	redisInfra "github.com/fastygo/livechat/internal/infrastructure/redis"
	"github.com/fastygo/livechat/internal/middleware"
	"github.com/fastygo/livechat/internal/router"
	"github.com/fastygo/livechat/internal/services"
	"github.com/fastygo/livechat/internal/services/lifecycle"
	"github.com/fastygo/livechat/pkg/httpcontext"
	"github.com/fastygo/livechat/pkg/logger"
	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/repository/memory"
	"github.com/fastygo/livechat/repository/postgres"
	redisRepo "github.com/fastygo/livechat/repository/redis"
	"github.com/fastygo/livechat/usecase"
	chatUC "github.com/fastygo/livechat/usecase/chat"
	claimUC "github.com/fastygo/livechat/usecase/claim"
	presenceUC "github.com/fastygo/livechat/usecase/presence"
)

type repositories struct {
	chats    repository.ChatRepository
	claims   repository.ClaimRepository
	events   repository.EventRepository
	presence repository.PresenceRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var pool *pgxpool.Pool
	if cfg.Storage.Backend == config.StoragePostgres {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, cfg.AppName, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
	}

	var redisClient *goRedis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			if cfg.Events.UseRedis {
				zapLogger.Fatal("redis connection failed", zap.Error(err))
			}
			zapLogger.Warn("redis unavailable, presence kept in process", zap.Error(err))
			redisClient = nil
		} else {
			manager.Register("redis", func(ctx context.Context) error {
				return redisClient.Close()
			})
		}
	}

	repos := buildRepositories(cfg, pool, redisClient)

	outboxStore, err := outbox.Open(cfg.Outbox.Path, cfg.Outbox.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Refresh()
	manager.OnStart("monitor", func(ctx context.Context) error {
		mon.Start()
		return nil
	})
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var transport services.Transport = publisher.NewLogPublisher(zapLogger)
	if cfg.Events.UseRedis && redisClient != nil {
		transport = publisher.NewRedisPublisher(redisClient, cfg.Events.ChannelPrefix, zapLogger)
	}

	relay := services.NewOutboxRelay(outboxStore, mon, transport, repos.events, zapLogger, services.RelayConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetry,
		Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	})
	manager.OnStart("outbox_relay", func(ctx context.Context) error {
		relay.Start()
		return nil
	})
	manager.Register("outbox_relay", func(ctx context.Context) error {
		relay.Stop(ctx)
		return nil
	})

	sweeper := services.NewPresenceSweeper(repos.presence, cfg.Presence.TTL, cfg.Presence.SweepInterval, zapLogger)
	manager.OnStart("presence_sweeper", func(ctx context.Context) error {
		sweeper.Start()
		return nil
	})
	manager.Register("presence_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ids := domain.UUIDGenerator{}
	lanes := usecase.NewChatLanes(cfg.Storage.ChatLanes)
	emitter := usecase.NewEventEmitter(relay, ids, zapLogger)

	chatUseCase := chatUC.New(chatUC.Deps{
		Chats:  repos.chats,
		Events: emitter,
		IDs:    ids,
		Lanes:  lanes,
		Logger: zapLogger,
	})
	claimUseCase := claimUC.New(claimUC.Deps{
		Claims:     repos.claims,
		Chats:      repos.chats,
		Presence:   repos.presence,
		Assignment: claimdomain.NewAssignmentService(),
		Events:     emitter,
		IDs:        ids,
		Lanes:      lanes,
		Logger:     zapLogger,
	})
	presenceUseCase := presenceUC.New(repos.presence, nil, zapLogger)

	dispatcher := usecase.NewDispatcher()
	chatUseCase.Register(dispatcher)
	claimUseCase.Register(dispatcher)
	presenceUseCase.Register(dispatcher)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Chat:     apiHandler.NewChatHandler(chatUseCase, ctxAdapter, zapLogger),
		Claim:    apiHandler.NewClaimHandler(claimUseCase, ctxAdapter, zapLogger),
		Presence: apiHandler.NewPresenceHandler(presenceUseCase, ctxAdapter, zapLogger),
		Command:  apiHandler.NewCommandHandler(dispatcher, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	if err := manager.Start(appCtx); err != nil {
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", string(cfg.Storage.Backend)),
			zap.Strings("commands", dispatcher.Commands()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// buildRepositories picks the storage adapters. Presence lives in Redis when
// a client is available, in process otherwise.
func buildRepositories(cfg *config.Config, pool *pgxpool.Pool, redisClient *goRedis.Client) repositories {
	var repos repositories
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		repos.chats = postgres.NewChatRepository(pool)
		repos.claims = postgres.NewClaimRepository(pool)
		repos.events = postgres.NewEventRepository(pool)
	default:
		repos.chats = memory.NewChatRepository()
		repos.claims = memory.NewClaimRepository()
		repos.events = memory.NewEventRepository()
	}

	if redisClient != nil {
		repos.presence = redisRepo.NewPresenceRepository(redisClient, cfg.Presence.TTL)
	} else {
		repos.presence = memory.NewPresenceRepository(cfg.Presence.TTL, nil)
	}
	return repos
}
