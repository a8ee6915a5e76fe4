package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/config"
	"github.com/kingshipwears/storefront/internal/format"
	"github.com/kingshipwears/storefront/internal/i18n"
	"github.com/kingshipwears/storefront/internal/observability"
)

var supportedLocales = []string{format.DefaultLang, "yo"}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr    string
		envFile string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides KINGSHIP_SERVER_ADDR)")
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file read before the process environment")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	products, err := loadCatalog(cfg.Paths.CatalogDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	bundle, err := i18n.LoadDir(cfg.Paths.LocalesDir, format.DefaultLang, supportedLocales)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	a, err := newApp(cfg, appDeps{Logger: logger, Catalog: products, Bundle: bundle})
	if err != nil {
		return err
	}
	go a.carts.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("env", cfg.Environment),
			zap.Bool("dev_mode", cfg.DevMode),
			zap.Int("products", products.Len()),
			zap.String("whatsapp", a.handoff.Phone()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	a.splash.StopAll()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	return nil
}

// loadCatalog reads product files from dir, or the embedded catalog when
// dir is empty.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(dir)
}
