// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/api"
	"github.com/bookwise-app/bookwise-server/internal/app"
	"github.com/bookwise-app/bookwise-server/internal/config"
	"github.com/bookwise-app/bookwise-server/internal/logger"
)

func main() {
	cfg, err := config.Init()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.InitServices(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize services", "error", err)
	}

	router := api.SetupRouter(application.Handlers, application.Tokens, cfg.UploadDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}
