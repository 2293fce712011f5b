package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct.
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitProducts submits products concurrently using worker pools.
func submitProducts(ctx context.Context, config *Config, products []Product, stats *Stats) error {
	log.Printf("submitting %d products with %d workers...", len(products), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/products"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	productChan := make(chan Product, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for product := range productChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleProduct(client, url, product)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						log.Printf("progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
							total, len(products), succ, dup, fail)
					}
				}
			}
		}()
	}

	go func() {
		defer close(productChan)
		for _, product := range products {
			select {
			case <-ctx.Done():
				return
			case productChan <- product:
			}
		}
	}()

	wg.Wait()

	stats.ProductsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ProductsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ProductsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ProductsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`product submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.ProductsSuccessful, stats.ProductsDuplicate, stats.ProductsFailed)

	return nil
}

// submitSingleProduct submits a single product and returns the result.
func submitSingleProduct(client *HTTPClient, url string, product Product) string {
	resp, err := client.Post(url, product)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
