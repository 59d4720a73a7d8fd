package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"estate_listing/internal/adapters/geocache"
	server "estate_listing/internal/adapters/http_server"
	"estate_listing/internal/adapters/locationiq"
	"estate_listing/internal/adapters/observability"
	redisad "estate_listing/internal/adapters/redis"
	"estate_listing/internal/app"
	"estate_listing/internal/domain"
	"estate_listing/internal/shared"
	"estate_listing/internal/storage/memory"
	mysqlrepo "estate_listing/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store := openStore(cfg)

	client, err := locationiq.New(cfg.LocationIQBase, cfg.LocationIQKey, cfg.GeocodeRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LocationIQ client")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	geo := geocache.NewIfReachable(ctx, client, cache, cfg.CacheTTL, 2*time.Second)

	// http
	srv := server.New(log.Logger)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Search:   app.NewSearchService(store, geo),
		Listings: app.NewListingService(store, geo),
		Secret:   []byte(cfg.JWTSecret),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) domain.ListingStore {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory listing store; data is lost on exit")
		return memory.New()
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db)
}
