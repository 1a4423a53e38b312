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
	"bourse/internal/publish"
	"bourse/internal/report"
	"bourse/internal/simulation"
	"bourse/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Runs the file driven simulation: orders<day>.csv in, missions and
// settlements out, one trading day at a time.
func main() {
	envPath := flag.String("env", "", "Path to a .env file")
	days := flag.Int("days", 0, "Number of trading days (overrides BOURSE_DAYS)")
	flag.Parse()

	cfg := config.LoadFromEnv(*envPath)
	if *days > 0 {
		cfg.Simulation.Days = *days
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	source := report.NewDirSource(cfg.Simulation.InputDir)
	tickers, house, err := simulation.LoadMarket(source, cfg.Simulation.SettlementLag)
	if err != nil {
		return err
	}

	writer, err := report.NewDirWriter(cfg.Simulation.OutputDir)
	if err != nil {
		return err
	}

	var missions storage.MissionStore = storage.NewMemoryStore()
	if cfg.Simulation.DataDir != "" {
		if missions, err = storage.OpenPebbleStore(cfg.Simulation.DataDir); err != nil {
			return err
		}
	}
	defer missions.Close()

	var sink publish.Sink = publish.Discard{}
	if len(cfg.Kafka.Brokers) > 0 {
		sink = publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer sink.Close()

	var t tomb.Tomb
	sequencer := engine.NewSequencer(engine.New())
	sequencer.Start(&t)
	defer func() {
		t.Kill(nil)
		_ = t.Wait()
	}()

	sim := simulation.New(simulation.Deps{
		Sequencer: sequencer,
		Validator: ingest.NewValidator(tickers, house),
		House:     house,
		Source:    source,
		Writer:    writer,
		Missions:  missions,
		Sink:      sink,
	})

	results, err := sim.Run(ctx, cfg.Simulation.Days)
	if err != nil {
		return err
	}
	log.Info().Int("days", len(results)).Str("output", cfg.Simulation.OutputDir).Msg("simulation finished")
	return nil
}
