package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"bourse/internal/config"
	"bourse/internal/engine"
	"bourse/internal/ingest"
	"bourse/internal/net"
	"bourse/internal/report"
	"bourse/internal/simulation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

func main() {
	envPath := flag.String("env", "", "Path to a .env file")
	flag.Parse()

	cfg := config.LoadFromEnv(*envPath)
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Customers and tickers come from the same tables the simulation uses.
	tickers, house, err := simulation.LoadMarket(
		report.NewDirSource(cfg.Simulation.InputDir),
		cfg.Simulation.SettlementLag,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load market")
	}

	// Setup the matching engine and the TCP server.
	var t tomb.Tomb
	sequencer := engine.NewSequencer(engine.New())
	sequencer.Start(&t)

	srv := net.New(
		cfg.Gateway.ListenAddress,
		cfg.Gateway.Port,
		uint(cfg.Gateway.Workers),
		sequencer,
		ingest.NewValidator(tickers, house),
	)

	// Block on running the server.
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	t.Kill(nil)
	_ = t.Wait()
}
