package seeder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mzare/ecotrace/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes a complete corpus seeding pass: generate (or load)
// products, submit them, then verify ranks against the greenest
// listing.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting corpus seeding",
		logger.String("baseURL", config.BaseURL),
		logger.Int("products", config.NumProducts),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("inputCSV", config.InputCSV),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate or load products
	var (
		products []Product
		err      error
	)
	if config.InputCSV != "" {
		products, err = loadProductsFromCSV(ctx, config.InputCSV, stats)
	} else {
		products, err = generateProducts(ctx, config, stats)
	}
	if err != nil {
		return fmt.Errorf("product preparation failed: %w", err)
	}

	// Step 3: Submit products concurrently
	if err := submitProducts(ctx, config, products, stats); err != nil {
		return fmt.Errorf("product submission failed: %w", err)
	}

	// Step 4: Wait for the workers to drain the queue
	logger.Get().Info(ctx, "waiting for products to be scored")
	time.Sleep(ProcessingDelay)

	// Step 5: Retrieve ranks concurrently
	ranks, err := retrieveRanks(ctx, config, products, stats)
	if err != nil {
		return fmt.Errorf("rank retrieval failed: %w", err)
	}

	// Step 6: Get the greenest listing
	greenest, err := getGreenest(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("greenest retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, ranks, greenest); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save products to file
	if err := saveProductsToFile(ctx, config, products); err != nil {
		logger.Get().Warn(ctx, "failed to save products to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveProductsToFile saves the submitted products to a JSON file.
func saveProductsToFile(ctx context.Context, config *Config, products []Product) error {
	if len(products) == 0 {
		return fmt.Errorf("no products to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "seeded_products_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, product := range products {
		jsonData, err := marshalJSON(product)
		if err != nil {
			return fmt.Errorf("failed to marshal product %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write product %d: %w", i, err)
		}

		if i < len(products)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "products saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var successRate, productsPerSecond float64

	if stats.ProductsSubmitted > 0 {
		successRate = float64(stats.ProductsSuccessful) / float64(stats.ProductsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		productsPerSecond = float64(stats.ProductsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("productsGenerated", stats.ProductsGenerated),
		logger.Int("productsSubmitted", stats.ProductsSubmitted),
		logger.Int("productsSuccessful", stats.ProductsSuccessful),
		logger.Int("productsDuplicate", stats.ProductsDuplicate),
		logger.Int("productsFailed", stats.ProductsFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("greenestEntries", stats.GreenestEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("productsPerSecond", productsPerSecond))
}
