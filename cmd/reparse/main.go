// Command reparse re-runs the interpreter over every archived assistant
// reply and prints how many records it recovers.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"travel_genie/internal/adapters/observability"
	"travel_genie/internal/app"
	"travel_genie/internal/shared"
	mysqlrepo "travel_genie/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	asJSON := flag.Bool("json", false, "write the report to stdout as JSON")
	flag.IntVar(&cfg.ReparseWorkers, "workers", cfg.ReparseWorkers, "concurrent interpreters")
	flag.IntVar(&cfg.ReparseLimit, "limit", cfg.ReparseLimit, "max messages, 0 for all")
	flag.Parse()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required")
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	log.Info().
		Int("workers", cfg.ReparseWorkers).
		Int("limit", cfg.ReparseLimit).
		Msg("reparse starting")

	start := time.Now()
	rep, err := app.NewReparser(mysqlrepo.New(db), cfg.ReparseWorkers, nil).Run(ctx, cfg.ReparseLimit)
	if err != nil {
		log.Fatal().Err(err).Int("done", rep.Messages).Msg("reparse failed")
	}

	log.Info().
		Int("messages", rep.Messages).
		Int("plain", rep.Formats[app.FormatPlain]).
		Int("notes", rep.Formats[app.FormatNotes]).
		Int("cards", rep.Formats[app.FormatCards]).
		Int("flights", rep.Flights).
		Int("hotels", rep.Hotels).
		Dur("took", time.Since(start)).
		Msg("reparse completed")

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatal().Err(err).Msg("write report")
		}
	}
}
