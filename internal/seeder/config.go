package seeder

import "time"

// Config holds configuration for a corpus seeding run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumProducts int           // Number of products to generate
	TopN        int           // Number of greenest entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	InputCSV    string        // Optional CSV file to seed from instead of generating
	OutputFile  string        // Output file for generated products
	LogFile     string        // Log file for seeding output
	Verbose     bool          // Enable verbose logging
}

// Product represents a product submission.
type Product struct {
	EventID            string  `json:"event_id"`
	ProductID          string  `json:"product_id"`
	PackagingMaterial  string  `json:"packaging_material"`
	ShippingMode       string  `json:"shipping_mode"`
	UsageDuration      string  `json:"usage_duration"`
	RepairabilityScore int     `json:"repairability_score"`
	CategoryCode       string  `json:"category_code"`
	Brand              string  `json:"brand"`
	Price              float64 `json:"price"`
	TS                 string  `json:"ts"`
}

// Entry represents a scored corpus entry from the read endpoints.
type Entry struct {
	Rank       int     `json:"rank"`
	ProductID  string  `json:"product_id"`
	Brand      string  `json:"brand"`
	CFScore    float64 `json:"cf_score"`
	CFCategory string  `json:"cf_category"`
}

// AckResponse represents the response from product submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds seeding run statistics.
type Stats struct {
	ProductsGenerated  int
	ProductsSubmitted  int
	ProductsSuccessful int
	ProductsDuplicate  int
	ProductsFailed     int
	RanksRetrieved     int
	GreenestEntries    int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
