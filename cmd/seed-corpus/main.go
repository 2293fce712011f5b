package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/mzare/ecotrace/internal/seeder"
)

// Default configuration constants.
const (
	defaultNumProducts = 10000
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numProducts = flag.Int("products", defaultNumProducts, "Number of products to generate and submit")
		topN        = flag.Int("top", defaultTopN, "Number of greenest entries to fetch")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		inputCSV    = flag.String("csv", "", "Seed from a CSV file instead of generating random products")
		outputFile  = flag.String("output", "", "Output file for submitted products (default: seeded_products_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for seeding output (default: seed_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeder.ShowHelp()
		return
	}

	if err := seeder.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seeder.Config{
		BaseURL:     *baseURL,
		NumProducts: *numProducts,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		InputCSV:    *inputCSV,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := seeder.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
