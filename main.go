package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gosdt/adapters/postgres"
	"gosdt/internal/api"
	"gosdt/internal/config"
	"gosdt/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource so that deferred cleanup happens before the process exits.
func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create application container: %w", err)
	}
	defer appContainer.Shutdown(context.Background())
	logger := appContainer.Logger

	if appConfig.Database.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), appConfig.Database.ConnectTimeout)
		db, err := postgres.Connect(ctx, appConfig.Database.URL)
		if err == nil {
			err = appContainer.InitWithDatabase(ctx, db)
		}
		cancel()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("using PostgreSQL block storage")
	} else {
		logger.Info("DATABASE_URL not set, using in-memory block storage")
	}

	apiServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(appContainer.APIHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	uiServer := &http.Server{
		Addr:              ":" + appConfig.Server.UIPort,
		Handler:           appContainer.UI,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, uiServer} {
		go func(srv *http.Server) {
			logger.Info("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errs <- err
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	case err := <-errs:
		logger.Error("server failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, uiServer} {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown of %s failed: %v", srv.Addr, err)
		}
	}
	return nil
}
