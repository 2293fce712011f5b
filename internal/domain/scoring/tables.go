// Package scoring computes carbon footprint scores from categorical
// product attributes.
package scoring

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Neutral defaults applied when a categorical value is not in a table.
const (
	neutralSubScore   = 5.0
	neutralMultiplier = 1.0
	neutralWeight     = 1.0
)

//go:embed tables.yaml
var embeddedTables []byte

// Tables holds the static attribute score tables. The tables are fixed
// for the lifetime of the process; lookups never mutate state and are
// safe for concurrent use.
//
// Packaging, shipping and brand lookups are case-insensitive. Category
// lookups are exact-match on the dotted code.
type Tables struct {
	Packaging        map[string]float64 `yaml:"packaging"`
	PackagingDefault float64            `yaml:"packaging_default"`
	Shipping         map[string]float64 `yaml:"shipping"`
	ShippingDefault  float64            `yaml:"shipping_default"`
	CategoryWeights  map[string]float64 `yaml:"category_weights"`
	BrandMultipliers map[string]float64 `yaml:"brand_multipliers"`
}

// LoadTables returns the tables from the embedded asset.
func LoadTables() (*Tables, error) {
	return parseTables(embeddedTables)
}

// LoadTablesFromFile reads a tables asset from disk, allowing the
// embedded tables to be swapped without recompilation.
func LoadTablesFromFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables asset: %w", err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (*Tables, error) {
	t := &Tables{
		PackagingDefault: neutralSubScore,
		ShippingDefault:  neutralSubScore,
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTables, err)
	}
	if len(t.Packaging) == 0 || len(t.Shipping) == 0 {
		return nil, fmt.Errorf("%w: packaging and shipping tables must not be empty", ErrBadTables)
	}
	// Normalize keys once so lookups stay allocation-free.
	t.Packaging = lowerKeys(t.Packaging)
	t.Shipping = lowerKeys(t.Shipping)
	t.BrandMultipliers = lowerKeys(t.BrandMultipliers)
	return t, nil
}

func lowerKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// PackagingScore returns the penalty sub-score for a packaging material.
func (t *Tables) PackagingScore(material string) float64 {
	if s, ok := t.Packaging[strings.ToLower(material)]; ok {
		return s
	}
	return t.PackagingDefault
}

// ShippingScore returns the penalty sub-score for a shipping mode.
func (t *Tables) ShippingScore(mode string) float64 {
	if s, ok := t.Shipping[strings.ToLower(mode)]; ok {
		return s
	}
	return t.ShippingDefault
}

// BrandMultiplier returns the sustainability multiplier for a brand,
// or 1.0 for brands not in the table.
func (t *Tables) BrandMultiplier(brand string) float64 {
	if m, ok := t.BrandMultipliers[strings.ToLower(brand)]; ok {
		return m
	}
	return neutralMultiplier
}

// CategoryWeight returns the weight for a category code. The lookup is
// an exact match on the dotted code; unknown codes weigh 1.0.
func (t *Tables) CategoryWeight(code string) float64 {
	if w, ok := t.CategoryWeights[code]; ok {
		return w
	}
	return neutralWeight
}
