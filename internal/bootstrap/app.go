package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"revpipe/internal/bootstrap/config"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
	"revpipe/internal/infrastructure/queue/rabbitmq"
	"revpipe/internal/transport/admin"
	"revpipe/internal/usecase/control"
	"revpipe/internal/usecase/ingestion"
)

// App bundles the wired process: configuration, the catalog database, the
// shared broker connection, both consumers and the operator surfaces.
type App struct {
	Config  config.Config
	DB      *gorm.DB
	Broker  *rabbitmq.Manager
	Ingest  *ingestion.Service
	Control *control.Service
	Reviews *rabbitmq.Consumer
	Reports *rabbitmq.Consumer
	Admin   *admin.Server
}

// InitSchema creates or migrates every catalog table.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(
		&model.Manufacturer{},
		&model.ManufacturerStoreID{},
		&model.Product{},
		&model.Review{},
		&model.ReviewImage{},
		&model.Report{},
		&model.Issue{},
		&model.IssueImage{},
		&model.ReliabilityKeyframe{},
		&model.StatusKV{},
	); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
