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

	server "travel_genie/internal/adapters/http_server"
	"travel_genie/internal/adapters/observability"
	"travel_genie/internal/adapters/recommender"
	redisad "travel_genie/internal/adapters/redis"
	"travel_genie/internal/app"
	"travel_genie/internal/domain"
	"travel_genie/internal/shared"
	mysqlrepo "travel_genie/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// session store
	sessions := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.SessionTTL)
	defer sessions.Close()
	if err := sessions.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	log.Info().Msg("redis connection ok")

	client, err := recommender.New(cfg.RecommenderBase, recommender.Options{
		Timeout:    cfg.RecommenderTimeout,
		RPS:        cfg.RecommenderRPS,
		ProfileTTL: cfg.ProfileCacheTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize recommender client")
	}

	opts := []app.ChatOption{app.WithInterpretHook(observability.ObserveInterpretation)}

	// db (optional)
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		if err := mysqlrepo.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("database connection ok")
		opts = append(opts, app.WithArchive(mysqlrepo.New(db)))
	}

	chat := app.NewChatService(sessions, client, domain.Builtin(), cfg.RecommenderTimeout, opts...)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Chat: chat})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("recommender", cfg.RecommenderBase).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
