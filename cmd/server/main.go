package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/router"
	"github.com/BulizzesRG/myownpos/internal/search"
	"github.com/BulizzesRG/myownpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title          MyOwnPOS catalog API
// @version        1.0
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in production
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root): index maintenance
	// when SEARCH_SYNC_MODE=queue, price alerts when SMTP is configured.
	// Unhandled job types land in the DLQ and can be replayed later.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handlers := worker.Handlers{}
	indexW := worker.NewIndexWorker(search.NewRedisIndex(rdb, cfg.SearchIndexPrefix))
	handlers[worker.JobIndexUpsert] = indexW
	handlers[worker.JobIndexRemove] = indexW
	if mailer := infra.NewMailer(cfg); mailer.Configured() {
		handlers[worker.JobPriceChanged] = worker.NewEmailWorker(mailer, cfg.PriceAlertEmail)
	} else {
		log.Warn().Msg("SMTP_HOST not set; price change alerts are parked in the DLQ")
	}
	wg := worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	searchCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("search"))
	r := router.New(cfg, db, rdb, searchCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("sync_mode", cfg.SearchSyncMode).Msgf("catalog API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	wg.Wait()
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
