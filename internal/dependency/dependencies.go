package dependency

import (
	"context"
	"errors"
	"log/slog"

	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/db"
	"github.com/itsDrac/e-auc-live/internal/handlers"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/scheduler"
	"github.com/itsDrac/e-auc-live/internal/service"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/config"
	"github.com/itsDrac/e-auc-live/pkg/jwt"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

// Dependencies holds all the intialized instances required by the application.
// Every optional collaborator is resolved here, once, to either its real
// client or its no-op stand-in.
type Dependencies struct {
	Config    config.Config
	Logger    *logger.Logger
	Store     repository.Store
	Cache     cache.Cacher
	Storage   storage.Storager
	Outbound  outbound.Notifier
	Hub       *realtime.Hub
	Services  *service.Services
	Scheduler *scheduler.Scheduler

	UserHandler         *handlers.UserHandler
	AuctionHandler      *handlers.AuctionHandler
	BidHandler          *handlers.BidHandler
	NegotiationHandler  *handlers.NegotiationHandler
	NotificationHandler *handlers.NotificationHandler
}

// NewDependencies connects to the configured backends and wires up all services.
func NewDependencies(ctx context.Context, cfg config.Config, log *logger.Logger) (*Dependencies, error) {
	d := &Dependencies{
		Config: cfg,
		Logger: log,
		Hub:    realtime.NewHub(),
	}

	if err := d.initBackends(ctx); err != nil {
		d.Close()
		return nil, err
	}

	jm, err := jwt.NewJwtManager(cfg.AccessSecret, cfg.RefreshSecret)
	if err != nil {
		d.Close()
		return nil, err
	}

	locker, ok := d.Cache.(cache.Locker)
	if !ok {
		locker = cache.NoopLocker{}
	}

	d.Services = service.NewServices(service.Collaborators{
		Store:    d.Store,
		Cache:    d.Cache,
		Locker:   locker,
		Storage:  d.Storage,
		Channel:  d.Hub,
		Outbound: d.Outbound,
		JWT:      jm,
		Log:      log,
	}, service.Options{
		Bid: service.BidOptions{
			LockTTL:  cfg.BidLockTTL,
			LockWait: cfg.BidLockWait,
		},
		NotificationLimit: cfg.NotificationLimit,
	})

	d.Scheduler = scheduler.New(d.Store, d.Services.NotificationService, d.Hub, log, cfg.SweepInterval)

	debug := !cfg.IsProduction()
	d.UserHandler, _ = handlers.NewUserHandler(d.Services.UserService, d.Services.AuthService, debug)
	d.AuctionHandler, _ = handlers.NewAuctionHandler(d.Services.AuctionService, debug)
	d.BidHandler, _ = handlers.NewBidHandler(d.Services.BidService, debug)
	d.NegotiationHandler, _ = handlers.NewNegotiationHandler(d.Services.NegotiationService, debug)
	d.NotificationHandler, _ = handlers.NewNotificationHandler(d.Services.NotificationService, debug)

	return d, nil
}

func (d *Dependencies) initBackends(ctx context.Context) error {
	cfg := d.Config

	if cfg.DBDsn == "" {
		slog.Warn("[DB] DB_DSN not set, using in-memory store")
		d.Store = repository.NewMemoryStore()
	} else {
		if cfg.MigrationsPath != "" {
			if err := db.Migrate(cfg.DBDsn, cfg.MigrationsPath); err != nil {
				slog.Error("[DB] migration failed -> ", "error", err.Error())
				return err
			}
		}
		conn, err := db.NewDB(ctx, cfg.DBDsn)
		if err != nil {
			slog.Error("[DB] connection failed -> ", "error", err.Error())
			return err
		}
		d.Store = repository.NewPostgresStore(conn)
	}

	if cfg.RedisAddr == "" {
		slog.Warn("[Cache] REDIS_ADDR not set, bidding without auction locks")
		d.Cache = cache.NoopCache{}
	} else {
		redisCache, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("[Cache] failed to initialized ->", "error", err.Error())
			return err
		}
		slog.Info("[Cache] connected")
		d.Cache = redisCache
	}

	if cfg.MinioEndpoint == "" {
		slog.Warn("[Storage] MINIO_ENDPOINT not set, image uploads disabled")
		d.Storage = storage.DisabledStorage{}
	} else {
		minioStorage, err := storage.NewMinioStorage(storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			slog.Error("[Storage] failed to initialize -> ", "error", err.Error())
			return err
		}
		d.Storage = minioStorage
	}

	if cfg.AMQPURL == "" {
		slog.Warn("[Outbound] AMQP_URL not set, SMS/email disabled")
		d.Outbound = outbound.NoopNotifier{}
	} else {
		queue, err := outbound.NewQueueNotifier(cfg.AMQPURL, cfg.OutboundQueue)
		if err != nil {
			slog.Error("[Outbound] failed to connect -> ", "error", err.Error())
			return err
		}
		d.Outbound = queue
	}
	return nil
}

// Close tears down every collaborator. It is safe on a partially built value.
func (d *Dependencies) Close() error {
	var errs []error

	if d.Hub != nil {
		d.Hub.Close()
	}
	if d.Outbound != nil {
		if err := d.Outbound.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Store != nil {
		d.Store.Close()
	}
	return errors.Join(errs...)
}
