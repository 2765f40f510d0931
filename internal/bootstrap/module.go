package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"revpipe/internal/bootstrap/config"
	"revpipe/internal/bootstrap/database"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/domain/ingest"
	cacheinfra "revpipe/internal/infrastructure/cache"
	sqliterepo "revpipe/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "revpipe/internal/infrastructure/persistence/sqlite/uow"
	"revpipe/internal/infrastructure/queue/rabbitmq"
	"revpipe/internal/ports"
	"revpipe/internal/transport/admin"
	"revpipe/internal/usecase/control"
	"revpipe/internal/usecase/ingestion"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideBroker),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCatalogRepository,
			fx.As(new(ports.CatalogRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			rabbitmq.NewProductPublisher,
			fx.As(new(ports.ProductQueue)),
		),
	),
	fx.Provide(
		fx.Annotate(
			rabbitmq.NewCrawlerPublisher,
			fx.As(new(ports.CrawlerControl)),
		),
	),
	fx.Provide(
		fx.Annotate(
			rabbitmq.NewInspector,
			fx.As(new(ports.QueueInspector)),
		),
	),
	fx.Provide(ingestion.NewService),
	fx.Provide(control.NewService),
	fx.Provide(
		fx.Annotate(provideReviewsConsumer, fx.ResultTags(`name:"reviewsConsumer"`)),
	),
	fx.Provide(
		fx.Annotate(provideReportsConsumer, fx.ResultTags(`name:"reportsConsumer"`)),
	),
	fx.Provide(provideAdminServer),
	fx.Provide(provideApp),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideBroker(lc fx.Lifecycle, cfg config.Config) *rabbitmq.Manager {
	conns := rabbitmq.NewManager(cfg.Queue.URL())

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return conns.Close()
		},
	})

	return conns
}

func provideReviewsConsumer(cfg config.Config, conns *rabbitmq.Manager, svc *ingestion.Service) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(conns, rabbitmq.ConsumerOptions{
		Queue:        ingest.QueueParsedReviews,
		Prefetch:     cfg.Queue.Prefetch,
		RequeueDelay: cfg.Queue.RequeueDelay,
	}, svc.HandleReviewsMessage)
}

func provideReportsConsumer(cfg config.Config, conns *rabbitmq.Manager, svc *ingestion.Service) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(conns, rabbitmq.ConsumerOptions{
		Queue:        ingest.QueueReports,
		Prefetch:     cfg.Queue.Prefetch,
		RequeueDelay: cfg.Queue.RequeueDelay,
	}, svc.HandleReportsMessage)
}

func provideAdminServer(cfg config.Config, ctrl *control.Service) *admin.Server {
	return admin.NewServer(cfg.Admin.Addr, ctrl)
}

type appParams struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Broker  *rabbitmq.Manager
	Ingest  *ingestion.Service
	Control *control.Service
	Reviews *rabbitmq.Consumer `name:"reviewsConsumer"`
	Reports *rabbitmq.Consumer `name:"reportsConsumer"`
	Admin   *admin.Server
}

func provideApp(p appParams) *App {
	return &App{
		Config:  p.Config,
		DB:      p.DB,
		Broker:  p.Broker,
		Ingest:  p.Ingest,
		Control: p.Control,
		Reviews: p.Reviews,
		Reports: p.Reports,
		Admin:   p.Admin,
	}
}
