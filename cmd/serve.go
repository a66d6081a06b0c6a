package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mailsignal/dmarclens/internal/api"
	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/httpclient"
	"github.com/mailsignal/dmarclens/internal/logger"
	"github.com/mailsignal/dmarclens/internal/resolver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dmarclens HTTP API server",
	Long: `Start the HTTP API server.

Endpoints:
  POST /api/v1/resolve-hostnames  batch reverse-DNS with service identification
  POST /api/v1/resolve-geo        batch IP geolocation
  POST /api/v1/reports            parse a DMARC aggregate report
  GET  /health                    liveness and cache reachability

The cache service must be reachable at startup; the server refuses to start
without it rather than degrade silently.
`,
	RunE: runServe,
}

var (
	serverPort int
	serverHost string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serverHost, "host", "", "Host to bind to (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()
	log = log.WithComponent("api-server")

	log.Infow("Starting dmarclens API server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"cors_enabled", cfg.Server.EnableCORS,
	)

	// No degraded no-cache mode: startup fails if the cache is unreachable.
	store, err := cache.NewRedisStore(cfg.Redis)
	if err != nil {
		return fmt.Errorf("cache service unreachable: %w", err)
	}
	defer store.Close()

	log.Infow("Cache connected",
		"addr", cfg.Redis.Addr,
		"hostname_ttl", cfg.Cache.HostnameTTL,
		"geo_ttl", cfg.Cache.GeoTTL,
	)

	client := httpclient.New(httpclient.DefaultConfig())

	hostnames := resolver.NewHostnameResolver(store, log, client, resolver.HostnameConfig{
		Endpoint: cfg.Resolver.DoHEndpoint,
		Timeout:  cfg.Resolver.HostnameTimeout,
		TTL:      cfg.Cache.HostnameTTL,
	})
	geo := resolver.NewGeoResolver(store, log, resolver.DefaultGeoProviders(client), resolver.GeoConfig{
		Timeout: cfg.Resolver.GeoTimeout,
		TTL:     cfg.Cache.GeoTTL,
		Pacing:  cfg.Resolver.GeoPacing,
	})

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(log, store, hostnames, geo)
	router := api.NewRouter(handler, log, cfg.Server)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Infow("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Infow("Server stopped")
	return nil
}
