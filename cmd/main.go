package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "banking_portal/docs"
	"banking_portal/internal/config"
	"banking_portal/internal/handlers"
	"banking_portal/internal/logger"
	"banking_portal/internal/repository"
	"banking_portal/internal/repository/db"
	"banking_portal/internal/server"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
)

// @title                       Banking Portal API
// @version                     1.0
// @description                 Register, sign in and move money on a single balance.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml + BANK_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// open DB and migrate
	conn, err := db.InitDB(ctx, cfg.DBPath, log.Component("migrations"))
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DBPath, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, cfg, log)
	handler := handlers.NewHandler(services, log.Component("http"), handlers.Options{
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
		Currency:     cfg.Ledger.Currency,
	})

	// purge expired sessions
	go services.Janitor.Run(ctx, cfg.Session.PurgeInterval)

	// start HTTP server
	srv := server.New(cfg.Server)
	runHTTPServer(srv, cfg.Port, handler, log)
	log.Infow("server started", "port", cfg.Port, "env", cfg.Env, "db", cfg.DBPath)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, cfg *config.Config, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
