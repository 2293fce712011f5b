package seeder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveRanks retrieves sustainability ranks for all products concurrently.
func retrieveRanks(ctx context.Context, config *Config, products []Product, stats *Stats) ([]Entry, error) {
	log.Printf("retrieving ranks for %d products with %d workers...", len(products), config.Workers)

	client := newHTTPClient(config.Timeout)

	productIDs := make([]string, len(products))
	for i, product := range products {
		productIDs[i] = product.ProductID
	}

	ranks := make([]Entry, len(productIDs))
	var (
		retrieved int64
		failed    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					productID := productIDs[index]
					entry, err := retrieveSingleRank(client, config.BaseURL, productID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get rank for %s: %v", productID, err)
						}
					} else {
						ranks[index] = entry
						atomic.AddInt64(&retrieved, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						log.Printf("rank progress: %d/%d retrieved (success: %d, failed: %d)",
							total, len(productIDs), atomic.LoadInt64(&retrieved), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range productIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty entries (failed retrievals).
	validRanks := make([]Entry, 0, len(ranks))
	for _, entry := range ranks {
		if entry.ProductID != "" {
			validRanks = append(validRanks, entry)
		}
	}

	stats.RanksRetrieved = len(validRanks)

	log.Printf(`rank retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRanks), int(atomic.LoadInt64(&failed)))

	return validRanks, nil
}

// retrieveSingleRank retrieves the rank for a single product.
func retrieveSingleRank(client *HTTPClient, baseURL, productID string) (Entry, error) {
	url := fmt.Sprintf("%s/products/%s/rank", baseURL, productID)

	resp, err := client.Get(url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := unmarshalJSON(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return entry, nil
}

// getGreenest retrieves the top N lowest-footprint entries.
func getGreenest(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("getting top %d greenest entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/greenest?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var greenest []Entry
	if err := unmarshalJSON(body, &greenest); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.GreenestEntries = len(greenest)
	log.Printf("retrieved %d greenest entries", len(greenest))

	return greenest, nil
}
