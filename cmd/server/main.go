package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/term"

	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/config"
	"github.com/mmynk/findash/internal/events"
	"github.com/mmynk/findash/internal/handler"
	"github.com/mmynk/findash/internal/middleware"
	"github.com/mmynk/findash/internal/report"
	"github.com/mmynk/findash/internal/service"
	"github.com/mmynk/findash/internal/storage/sqlite"
	"github.com/mmynk/findash/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, term.IsTerminal(int(os.Stderr.Fd())))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() && cfg.JWTSecret == config.DevJWTSecret {
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	api := handler.New(
		service.NewAuthService(authenticator, jwtManager, store, logger),
		service.NewTransactionService(store, report.NewEngine(store), publisher, logger),
		auth.NewGateway(jwtManager, store, logger),
		logger,
		cfg.IsDevelopment(),
	)
	apiMux := http.NewServeMux()
	api.Register(apiMux)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()
	metrics := middleware.NewMetrics()

	root := http.NewServeMux()
	root.Handle("GET /metrics", metrics.Handler())
	root.Handle("/", limiter.Middleware(apiMux))

	h := middleware.Chain(root,
		middleware.Recover(logger, cfg.IsDevelopment()),
		middleware.RequestLogger(logger),
		metrics.Middleware,
		middleware.SecurityHeaders(middleware.DefaultHeadersConfig()),
		middleware.CORS(cfg.FrontendURL),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"address", srv.Addr,
			"env", cfg.Env,
			"frontend_url", cfg.FrontendURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newPublisher connects to the broker when one is configured. The server
// still starts without it; events are then dropped.
func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, transaction events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warn("Failed to connect to AMQP broker, transaction events disabled", "error", err)
		return events.NopPublisher{}
	}
	return publisher
}
