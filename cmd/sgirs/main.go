// Command sgirs runs the SGIRS Cali waste-management portal: the REST API
// and the guarded citizen, official and administrator pages.
//
// @title                       SGIRS Cali API
// @version                     1.0
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sgirs-cali/portal/internal/api"
	"github.com/sgirs-cali/portal/internal/api/handler"
	"github.com/sgirs-cali/portal/internal/core/service"
	"github.com/sgirs-cali/portal/internal/infrastructure/backend"
	mongodb "github.com/sgirs-cali/portal/internal/infrastructure/db/mongo"
	redisdb "github.com/sgirs-cali/portal/internal/infrastructure/db/redis"
	"github.com/sgirs-cali/portal/internal/infrastructure/queue"
	"github.com/sgirs-cali/portal/internal/infrastructure/storage"
	"github.com/sgirs-cali/portal/internal/pkg/config"
	"github.com/sgirs-cali/portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sgirs: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "sgirs",
	})

	// --- MongoDB ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongodb.NewUserRepository(db)
	periods := mongodb.NewPeriodRepository(db)
	catalog := mongodb.NewCatalogRepository(db)
	forms := mongodb.NewFormRepository(db)
	events := mongodb.NewFormEventRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, periods, catalog, forms, events); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- S3 ---
	s3Client, err := storage.NewClient(ctx, storage.Config{
		Bucket:    cfg.S3.Bucket,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return err
	}

	// --- Audit trail ---
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, events, logger.Component("audit"))
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	// --- Services ---
	policy := service.AttachmentPolicy{MaxBytes: cfg.AttachmentMaxBytes}
	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL)
	periodService := service.NewPeriodService(periods, logger.Component("periods"))
	catalogService := service.NewCatalogService(catalog)
	formService := service.NewFormService(service.FormServiceDeps{
		Forms:       forms,
		Periods:     periods,
		Catalog:     catalogService,
		Attachments: storage.NewAttachmentStore(s3Client, cfg.S3.Bucket),
		Events:      events,
		Audit:       dispatcher,
		Policy:      policy,
	}, logger.Component("forms"))
	wizardService := service.NewWizardService(
		backend.New(cfg.APIBaseURL, cfg.BackendTimeout),
		redisdb.NewDraftStore(rdb, cfg.DraftTTL),
		redisdb.NewSaveLock(rdb, cfg.SaveLockTTL),
		policy,
		logger.Component("wizard"),
	)

	e := api.NewRouter(api.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		AuthCookie:         cfg.AuthCookie,
		RoleCookie:         cfg.RoleCookie,
		SecureCookies:      cfg.Production(),
		TokenTTL:           cfg.TokenTTL,
		AttachmentMaxBytes: cfg.AttachmentMaxBytes,
	}, api.Dependencies{
		Auth:    authService,
		Periods: periodService,
		Catalog: catalogService,
		Forms:   formService,
		Wizard:  wizardService,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
	}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("sgirs portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}
