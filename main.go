package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/api"
	"github.com/S4DIB/startup-world-cup/internal/auth"
	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/config"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/relay"
	"github.com/S4DIB/startup-world-cup/internal/waitlist"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.SetupBaseLogger()
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logging.Configure(cfg.Logging); err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	defer logging.Close()

	blobs, closeBlobs, err := blob.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeBlobs()
	log.WithField("backend", cfg.Storage.Backend).Info("storage ready")

	relayService, err := relay.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init relay: %v", err)
	}
	provider, _ := cfg.Provider()
	if cfg.APIKey(provider) == "" {
		log.WithField("provider", provider).Warn("relay api key not set; /api/chat will fail")
	}

	gate := auth.NewGate(cfg.AdminAPIKey)
	if !gate.Enabled() {
		log.Warn("ADMIN_API_KEY not set; admin endpoints reject every request")
	}

	handlers := api.NewHandler(waitlist.NewStore(blobs), relayService, gate)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Errorf("server stopped: %v", err)
	}
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
