package seeder

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mzare/ecotrace/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the corpus seeding tool.
func ShowHelp() {
	os.Stdout.WriteString(`EcoTrace Corpus Seeder
======================

A concurrent tool for seeding the product corpus and verifying
sustainability rankings.

Usage:
  go run cmd/seed-corpus/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -products int
        Number of products to generate and submit (default 10000)
  -top int
        Number of greenest entries to fetch (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -csv string
        Seed from a CSV file instead of generating random products
  -output string
        Output file for submitted products (default: seeded_products_TIMESTAMP.json)
  -log string
        Log file for seeding output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed-corpus/main.go

  # Seed with custom parameters
  go run cmd/seed-corpus/main.go -products 50000 -workers 16 -url http://localhost:8080

  # Seed from a CSV export
  go run cmd/seed-corpus/main.go -csv packaging_data_full.csv
`)
}
