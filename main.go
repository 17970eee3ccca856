package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chirp/auth"
	"chirp/config"
	"chirp/database"
	"chirp/logger"
	"chirp/routes"
	"chirp/services"
	"chirp/util"
)

const (
	connectAttempts = 3
	connectBackoff  = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is not configured yet
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.Release)
	log.Info().Msg("starting chirp server")

	// ===== CONNECT TO MONGODB WITH RETRY =====
	db, err := connectWithRetry(log, connectAttempts, connectBackoff, func() (*database.DB, error) {
		return database.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("mongodb connected")

	if err := db.EnsureIndexes(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := newRouter(cfg, log,
		database.NewUserRepository(db),
		database.NewPostRepository(db),
		util.NewRealClock(),
		func() error { return db.Ping(context.Background()) },
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect failed")
	}

	log.Info().Msg("server stopped")
}

// connectWithRetry calls connect up to attempts times, waiting backoff
// between failures but not after the last one.
func connectWithRetry[T any](log zerolog.Logger, attempts int, backoff time.Duration, connect func() (T, error)) (T, error) {
	var conn T
	var err error
	for i := 1; i <= attempts; i++ {
		conn, err = connect()
		if err == nil {
			return conn, nil
		}
		log.Warn().Err(err).Int("attempt", i).Msg("mongodb connection attempt failed")
		if i < attempts {
			time.Sleep(backoff)
		}
	}
	return conn, err
}

func newRouter(cfg config.Config, log zerolog.Logger, users services.UserStore, posts services.PostStore, clock util.Clock, ready func() error) *gin.Engine {
	return routes.SetupRouter(routes.Deps{
		Config: cfg,
		Log:    log,
		Users: services.NewUserService(
			users,
			auth.NewBcryptHasher(0),
			auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn, clock),
			clock,
		),
		Posts: services.NewPostService(posts, clock),
		Ready: ready,
	})
}
