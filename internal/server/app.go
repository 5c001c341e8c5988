// Package server initializes and runs the recipehub API server.
// It opens the database and applies migrations, selects the blob backend,
// starts the mail dispatcher and serves HTTP until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/recipehub/internal/logging"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/blob"
	"github.com/dmitrijs2005/recipehub/internal/server/config"
	"github.com/dmitrijs2005/recipehub/internal/server/mail"
	"github.com/dmitrijs2005/recipehub/internal/server/metrics"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipehub/internal/server/rest"
	"github.com/dmitrijs2005/recipehub/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *mail.Dispatcher
	httpServer *rest.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hasher, err := auth.NewHasher(c.HashCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	blobs, uploadDir, err := newBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	dispatcher := mail.NewDispatcher(mail.Config{
		Host:      c.SMTPHost,
		Port:      c.SMTPPort,
		Username:  c.SMTPUsername,
		Password:  c.SMTPPassword,
		From:      c.MailFrom,
		QueueSize: c.MailQueueSize,
	}, logger, collector)

	sessions := services.NewSessionService(db, rm, codec, hasher, c.SessionTokenTTL)
	resets := services.NewPasswordResetService(db, rm, codec, hasher, dispatcher, c.ResetTokenTTL, c.ResetPasswordURL)
	recipes := services.NewRecipeService(db, rm, blobs, logger)

	router := rest.NewRouter(rest.RouterConfig{
		Sessions:      sessions,
		PasswordReset: resets,
		Recipes:       recipes,
		Logger:        logger,
		Recorder:      collector,
		Gatherer:      reg,
		Cookie:        rest.CookieConfig{MaxAge: c.SessionTokenTTL, Secure: c.CookieSecure},
		AllowedOrigin: c.CORSAllowedOrigin,
		UploadDir:     uploadDir,
		Health:        db.PingContext,
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		httpServer: rest.NewServer(c.HTTPAddr, router, logger),
	}, nil
}

// newBlobStore returns the configured store and, for the disk backend, the
// directory to serve under /uploads.
func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, string, error) {
	switch c.BlobBackend {
	case config.BlobBackendS3:
		s, err := blob.NewS3Store(ctx, blob.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		return s, "", err
	case config.BlobBackendDisk:
		s, err := blob.NewDiskStore(c.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
	return nil, "", fmt.Errorf("unknown blob backend %q", c.BlobBackend)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.dispatcher.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
