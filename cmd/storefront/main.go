package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/seed"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

type eventSink interface {
	service.Publisher
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.MustLoad()

	logger, logFile := logging.NewWithFile(cfg.LogLevel, logging.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	logger = logger.With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	if cfg.Seed {
		if err := seed.Run(ctx, r); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	appMetrics, meterProvider, err := metrics.Init(ctx, metrics.Options{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Headers:     cfg.OTLPHeaders,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	var sink eventSink = events.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewProducer(cfg.KafkaBrokers)
	}

	catalog := &service.CatalogService{Repo: r}
	if cfg.ESURL != "" {
		idx, err := search.Connect(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("search_unavailable", "error", err)
		} else {
			catalog.Index = idx
			if products, err := r.AllProducts(ctx); err != nil {
				logger.Warn("reindex_error", "error", err)
			} else if err := idx.Reindex(ctx, products); err != nil {
				logger.Warn("reindex_error", "error", err)
			}
		}
	}

	accounts := &service.AccountService{
		Repo:          r,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}
	carts := &service.CartService{Repo: r}
	orders := &service.OrderService{Repo: r, Events: sink, Metrics: appMetrics}
	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if mailer.Enabled() {
		orders.Mail = mailer
	}
	reviews := &service.ReviewService{Repo: r, Events: sink, Metrics: appMetrics}
	uploads := &httpserver.Uploader{Dir: cfg.UploadDir}

	e := echo.New()
	e.Validator = transport.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, appMetrics))
	e.Use(echomw.Recover())
	e.Use(echomw.Secure())

	httpserver.Register(e, &httpserver.Deps{
		Catalog: &httpserver.CatalogHTTP{Svc: catalog},
		Auth:    &httpserver.AuthHTTP{Svc: accounts, SecureCookie: cfg.CookieSecure},
		Cart:    &httpserver.CartHTTP{Svc: carts, Vouchers: &service.VoucherService{Repo: r, Metrics: appMetrics}},
		Orders:  &httpserver.OrderHTTP{Svc: orders, Cart: carts, Accounts: accounts},
		Account: &httpserver.AccountHTTP{Svc: accounts},
		Reviews: &httpserver.ReviewHTTP{Svc: reviews, Uploads: uploads},
		Admin: &httpserver.AdminHTTP{
			Dashboard: &service.DashboardService{Repo: r},
			Orders:    orders,
			Catalog:   catalog,
			Accounts:  accounts,
			Uploads:   uploads,
		},
		AuthMW:    authmw.NewAutoRefreshMiddleware(cfg.JWTAccessSecret, httpserver.TokenRefresher{Svc: accounts}, cfg.CookieSecure),
		Sessions:  httpserver.NewSessionStore(cfg.SessionSecret, cfg.CookieSecure),
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := sink.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("storefront stopped")
	_ = logFile.Close()
}
