// Package predictor consults an external footprint classifier for the
// CF band of a product. The classifier is optional: without an
// endpoint, or on any failure, the band comes from the deterministic
// local fallback.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/pkg/logger"
	"github.com/mzare/ecotrace/pkg/metrics"
)

const (
	defaultTimeout   = 2 * time.Second
	maxResponseBytes = 1 << 16
)

// Fallback computes a band locally when the classifier cannot.
type Fallback func(attrs model.ProductAttributes) model.Band

// BandPredictor classifies product attributes into a CF band.
type BandPredictor interface {
	Predict(ctx context.Context, attrs model.ProductAttributes) model.Band
}

// Client implements BandPredictor over an HTTP classifier service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	fallback   Fallback
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithEndpoint sets the classifier URL. Empty means local-only.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a predictor backed by the given local fallback.
func NewClient(fallback Fallback, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		fallback:   fallback,
		logger:     logger.Get().Named("predictor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// predictRequest mirrors the classifier's training features.
type predictRequest struct {
	PackagingMaterial  string  `json:"packaging_material"`
	ShippingMode       string  `json:"shipping_mode"`
	UsageDuration      string  `json:"usage_duration"`
	RepairabilityScore int     `json:"repairability_score"`
	CategoryCode       string  `json:"category_code"`
	Brand              string  `json:"brand"`
	Price              float64 `json:"price"`
}

type predictResponse struct {
	CFCategory string `json:"cf_category"`
}

// Predict implements BandPredictor. It never returns an error: the
// local fallback answers whenever the classifier cannot.
func (c *Client) Predict(ctx context.Context, attrs model.ProductAttributes) model.Band {
	if c.endpoint == "" {
		metrics.RecordPredictorFallback()
		return c.fallback(attrs)
	}

	band, err := c.classify(ctx, attrs)
	if err != nil {
		metrics.RecordPredictorFallback()
		metrics.RecordErrorByComponent("predictor", "classify_failed")
		c.logger.Warn(ctx, "classifier call failed, using local fallback", logger.Error(err))
		return c.fallback(attrs)
	}
	return band
}

func (c *Client) classify(ctx context.Context, attrs model.ProductAttributes) (model.Band, error) {
	body, err := json.Marshal(predictRequest{
		PackagingMaterial:  attrs.PackagingMaterial,
		ShippingMode:       attrs.ShippingMode,
		UsageDuration:      attrs.UsageDuration,
		RepairabilityScore: attrs.RepairabilityScore,
		CategoryCode:       attrs.CategoryCode,
		Brand:              attrs.Brand,
		Price:              attrs.Price,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call classifier: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	switch band := model.Band(out.CFCategory); band {
	case model.BandLow, model.BandMedium, model.BandHigh:
		return band, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBand, out.CFCategory)
	}
}
