package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Simulation struct {
	InputDir      string
	OutputDir     string
	DataDir       string // pebble mission store; empty keeps missions in memory
	Days          int
	SettlementLag int
}

type Gateway struct {
	ListenAddress string
	Port          int
	Workers       int
}

type Kafka struct {
	Brokers []string // empty disables publishing
	Topic   string
}

type Config struct {
	Simulation Simulation
	Gateway    Gateway
	Kafka      Kafka
	LogLevel   zerolog.Level
}

func Default() Config {
	return Config{
		Simulation: Simulation{
			InputDir:      "input",
			OutputDir:     "output",
			Days:          4,
			SettlementLag: 2,
		},
		Gateway: Gateway{
			ListenAddress: "localhost",
			Port:          9001,
			Workers:       10,
		},
		Kafka: Kafka{
			Topic: "agreements",
		},
		LogLevel: zerolog.InfoLevel,
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and the
// environment. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Simulation.InputDir = getEnv("BOURSE_INPUT_DIR", cfg.Simulation.InputDir)
	cfg.Simulation.OutputDir = getEnv("BOURSE_OUTPUT_DIR", cfg.Simulation.OutputDir)
	cfg.Simulation.DataDir = getEnv("BOURSE_DATA_DIR", cfg.Simulation.DataDir)
	cfg.Simulation.Days = getInt("BOURSE_DAYS", cfg.Simulation.Days)
	cfg.Simulation.SettlementLag = getInt("BOURSE_SETTLEMENT_LAG", cfg.Simulation.SettlementLag)

	cfg.Gateway.ListenAddress = getEnv("BOURSE_LISTEN_ADDRESS", cfg.Gateway.ListenAddress)
	cfg.Gateway.Port = getInt("BOURSE_PORT", cfg.Gateway.Port)
	cfg.Gateway.Workers = getInt("BOURSE_WORKERS", cfg.Gateway.Workers)

	// Comma-separated, e.g. "kafka1:9092,kafka2:9092"
	if brokers := os.Getenv("BOURSE_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.Topic = getEnv("BOURSE_KAFKA_TOPIC", cfg.Kafka.Topic)

	if level := os.Getenv("BOURSE_LOG_LEVEL"); level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			cfg.LogLevel = parsed
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
