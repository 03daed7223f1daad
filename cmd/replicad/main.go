package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinisync/core/internal/logging"
	"github.com/clinisync/core/internal/protocol/httprouter"
	"github.com/clinisync/core/pkg/clinisync"
)

func main() {
	remoteURL := os.Getenv("REMOTE_URL")
	if remoteURL == "" {
		log.Fatal("REMOTE_URL must be set to the collaborator this device syncs with")
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	opts, err := clinisync.FromEnv(remoteURL)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "json"))
	if err != nil {
		log.Fatal(err)
	}
	opts.Logger = logger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := clinisync.Open(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer device.Close()

	if err := device.Engine().FullSync(ctx); err != nil {
		logger.Sugar().Warnf("initial bootstrap sync failed, continuing with whatever the journal already has: %v", err)
	}

	mux := http.NewServeMux()
	httprouter.NewHandlers(device.Engine()).Register(mux)

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Sugar().Infof("replicad listening on %s, device %s, syncing with %s", addr, device.DeviceID(), remoteURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
