// Package model contains domain models passed between layers.
package model

import "time"

// Band classifies a carbon footprint score into one of three buckets.
type Band string

// Carbon footprint bands, from most to least sustainable.
const (
	BandLow    Band = "Low CF"
	BandMedium Band = "Medium CF"
	BandHigh   Band = "High CF"
)

// ParseBand maps a wire-format band label to its Band value. The
// second return is false for unknown labels.
func ParseBand(s string) (Band, bool) {
	switch Band(s) {
	case BandLow, BandMedium, BandHigh:
		return Band(s), true
	default:
		return "", false
	}
}

// ProductAttributes captures the categorical attributes a carbon
// footprint score is derived from. Instances are treated as immutable
// value objects once constructed.
type ProductAttributes struct {
	PackagingMaterial  string  // e.g. "plastic", "cardboard"
	ShippingMode       string  // e.g. "air", "sea"
	UsageDuration      string  // leading integer year count, e.g. "3 years"
	RepairabilityScore int     // expected in [0,10]
	CategoryCode       string  // dotted hierarchy, e.g. "electronics.smartphone"
	Brand              string  // case-insensitive for lookup
	Price              float64 // non-negative
}

// CFScore is the computed carbon footprint of a product. It is produced
// exclusively by the scoring calculator and never mutated afterwards.
type CFScore struct {
	Value float64 // bounded to [0,100]
	Band  Band
}

// Choice records which product a user went through with at checkout.
type Choice string

const (
	// ChoiceAISuggested means the user took the suggested sustainable
	// alternative; it extends the user's streak.
	ChoiceAISuggested Choice = "AI_SUGGESTED"
	// ChoiceOriginal means the user kept their original pick; it resets
	// the streak to zero.
	ChoiceOriginal Choice = "ORIGINAL"
)

// Valid reports whether c is one of the two known choices.
func (c Choice) Valid() bool {
	return c == ChoiceAISuggested || c == ChoiceOriginal
}

// PurchaseRecord is a single entry in the append-only purchase ledger.
// Attributes and Score are snapshots taken at submission time.
type PurchaseRecord struct {
	ID         string
	UserID     string
	ProductID  string
	TS         time.Time
	Attributes ProductAttributes
	Score      CFScore
	Choice     Choice
}

// Product is a scored corpus record used for alternatives lookups.
type Product struct {
	ProductID  string
	Attributes ProductAttributes
	Score      CFScore
}

// IngestEvent is a raw corpus row submitted for asynchronous scoring.
// EventID is the idempotency key for the ingestion pipeline.
type IngestEvent struct {
	EventID    string
	ProductID  string
	Attributes ProductAttributes
	TS         time.Time
}
