// Package genai talks to a Gemini-style generative endpoint to turn a
// scored product, a user's history and the greener alternatives into
// advisory text. Every failure mode degrades to a fixed local payload
// so the recommendations endpoint never errors on collaborator trouble.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/types"
	"github.com/mzare/ecotrace/pkg/logger"
	"github.com/mzare/ecotrace/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultEndpoint  = "https://generativelanguage.googleapis.com"
	defaultModel     = "gemini-1.5-flash"
	defaultTimeout   = 8 * time.Second
	apiKeyEnvVar     = "GEMINI_API_KEY"
	maxResponseBytes = 1 << 20
)

// Request bundles everything the advisor needs to reason about one
// potential purchase.
type Request struct {
	UserID       string
	Product      model.Product
	History      []model.PurchaseRecord
	Alternatives []model.Product
}

// InsightClient produces advisory text for a purchase decision.
type InsightClient interface {
	Recommend(ctx context.Context, req Request) types.Insights
}

// Client implements InsightClient over the generateContent REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithModel sets the generative model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
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

// WithAPIKey sets the API key explicitly instead of reading the
// environment.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
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

// NewClient creates an insight client. With no API key in the
// environment the client still works, answering from the fallback.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		apiKey:     os.Getenv(apiKeyEnvVar),
		logger:     logger.Get().Named("genai"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateContent wire types, trimmed to the fields in use.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Recommend implements InsightClient. It never returns an error: any
// failure yields the fixed fallback payload.
func (c *Client) Recommend(ctx context.Context, req Request) types.Insights {
	if c.apiKey == "" {
		metrics.RecordInsightFallback()
		return fallbackInsights()
	}

	insights, err := c.generate(ctx, buildPrompt(req))
	if err != nil {
		metrics.RecordInsightFallback()
		metrics.RecordErrorByComponent("genai", "generate_failed")
		c.logger.Warn(ctx, "insight generation failed, serving fallback",
			logger.String("userID", req.UserID),
			logger.Error(err),
		)
		return fallbackInsights()
	}
	return insights
}

func (c *Client) generate(ctx context.Context, prompt string) (types.Insights, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return types.Insights{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.Insights{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.Insights{}, fmt.Errorf("call model endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return types.Insights{}, fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxResponseBytes)).Decode(&gen); err != nil {
		return types.Insights{}, fmt.Errorf("decode response: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return types.Insights{}, ErrEmptyResponse
	}

	text := stripCodeFences(gen.Candidates[0].Content.Parts[0].Text)
	var insights types.Insights
	if err := json.Unmarshal([]byte(text), &insights); err != nil {
		return types.Insights{}, fmt.Errorf("%w: %v", ErrMalformedInsights, err)
	}
	return insights, nil
}

// stripCodeFences unwraps a ```json ... ``` (or plain ```) fenced
// block, a common decoration around model output.
func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}

// buildPrompt renders the advisory prompt from the request.
func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are an expert sustainability advisor helping users make eco-friendly purchasing decisions.\n\n")
	b.WriteString("USER INFORMATION:\n")
	fmt.Fprintf(&b, "User ID: %s\n", req.UserID)
	b.WriteString("Purchase History:\n")
	if len(req.History) == 0 {
		b.WriteString("No purchase history available\n")
	}
	for _, rec := range req.History {
		fmt.Fprintf(&b, "- %s %s (CF: %.1f)\n",
			rec.Attributes.Brand, rec.Attributes.CategoryCode, rec.Score.Value)
	}

	b.WriteString("\nCURRENT PRODUCT:\n")
	writeProduct(&b, req.Product)

	b.WriteString("\nALTERNATIVE PRODUCTS WITH LOWER CARBON FOOTPRINT:\n")
	if len(req.Alternatives) == 0 {
		b.WriteString("No alternatives available\n")
	}
	for i, alt := range req.Alternatives {
		fmt.Fprintf(&b, "\nAlternative %d:\n", i+1)
		fmt.Fprintf(&b, "- Brand: %s\n", alt.Attributes.Brand)
		fmt.Fprintf(&b, "- Product: %s\n", alt.Attributes.CategoryCode)
		fmt.Fprintf(&b, "- Price: $%.2f\n", alt.Attributes.Price)
		fmt.Fprintf(&b, "- CF Score: %.1f\n", alt.Score.Value)
		fmt.Fprintf(&b, "- CF Category: %s\n", alt.Score.Band)
	}

	b.WriteString(`
Based on this information, please provide the following insights:
1. An assessment of the carbon footprint of the current product
2. How this purchase would impact the user's overall sustainability score
3. Specific recommendations for more sustainable alternatives
4. Practical sustainability tips related to this product category
5. Information about the brand's sustainability practices

Format your response as JSON with the following keys:
"product_assessment", "user_impact", "alternatives_recommendation", "sustainability_tips", "brand_info"

Keep your response focused and concise, with each section around 2-3 sentences.
`)
	return b.String()
}

func writeProduct(b *strings.Builder, p model.Product) {
	fmt.Fprintf(b, "Product: %s\n", p.Attributes.CategoryCode)
	fmt.Fprintf(b, "Brand: %s\n", p.Attributes.Brand)
	fmt.Fprintf(b, "Price: $%.2f\n", p.Attributes.Price)
	fmt.Fprintf(b, "Carbon Footprint Score: %.1f\n", p.Score.Value)
	fmt.Fprintf(b, "Carbon Footprint Category: %s\n", p.Score.Band)
	fmt.Fprintf(b, "Packaging: %s\n", p.Attributes.PackagingMaterial)
	fmt.Fprintf(b, "Shipping: %s\n", p.Attributes.ShippingMode)
	fmt.Fprintf(b, "Expected Usage: %s\n", p.Attributes.UsageDuration)
	fmt.Fprintf(b, "Repairability: %d/10\n", p.Attributes.RepairabilityScore)
}

// fallbackInsights is the canned advisory payload served whenever the
// model cannot be reached or its output cannot be parsed.
func fallbackInsights() types.Insights {
	return types.Insights{
		ProductAssessment:          "This product has a high carbon footprint score, indicating significant environmental impact.",
		UserImpact:                 "This purchase would increase your overall carbon footprint.",
		AlternativesRecommendation: "Consider more sustainable alternatives from brands with better environmental practices.",
		SustainabilityTips:         "Extend the product's lifespan through proper maintenance. Recycle responsibly at end-of-life.",
		BrandInfo:                  "This brand has moderate sustainability practices compared to industry standards.",
	}
}
