package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/mzare/ecotrace/internal/domain/model"
)

// Weighted-sum coefficients and classification thresholds.
const (
	packagingWeight = 2.5
	shippingWeight  = 3.0
	usageWeight     = 2.5
	repairWeight    = 2.0

	maxScore = 100.0
	minScore = 0.0

	highThreshold   = 70.0
	mediumThreshold = 40.0

	maxUsageScore      = 10
	minUsageScore      = 1
	fallbackUsageScore = 5

	maxRepairability = 10
	minRepairability = 0
)

// Calculator maps product attributes to a bounded carbon footprint
// score. Score is a pure function: deterministic, side-effect free, and
// total over arbitrary categorical input.
type Calculator struct {
	tables *Tables
}

// NewCalculator creates a calculator over the given tables.
func NewCalculator(tables *Tables) *Calculator {
	return &Calculator{tables: tables}
}

// Score computes the carbon footprint of attrs.
//
// Unknown packaging, shipping, brand or category values fall back to
// neutral defaults and never fail the computation. A usage duration
// without a leading integer falls back to a sub-score of 5.
// Repairability outside [0,10] is clamped before the penalty is taken,
// so hostile input cannot push the score out of bounds.
func (c *Calculator) Score(attrs model.ProductAttributes) model.CFScore {
	packagingScore := c.tables.PackagingScore(attrs.PackagingMaterial)
	shippingScore := c.tables.ShippingScore(attrs.ShippingMode)
	usageScore := usageDurationScore(attrs.UsageDuration)
	repairScore := float64(maxRepairability - clampRepairability(attrs.RepairabilityScore))

	base := packagingScore*packagingWeight +
		shippingScore*shippingWeight +
		usageScore*usageWeight +
		repairScore*repairWeight

	raw := base * c.tables.BrandMultiplier(attrs.Brand) * c.tables.CategoryWeight(attrs.CategoryCode)

	value := math.Min(maxScore, math.Max(minScore, raw))

	return model.CFScore{
		Value: value,
		Band:  Classify(value),
	}
}

// Classify maps a score in [0,100] to its band. The thresholds cover
// the full range with no overlap: >=70 High, >=40 Medium, else Low.
func Classify(value float64) model.Band {
	switch {
	case value >= highThreshold:
		return model.BandHigh
	case value >= mediumThreshold:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

// usageDurationScore parses the leading integer year count from
// strings like "3 years" and maps it to max(1, 10-years). A missing or
// non-numeric prefix yields the documented fallback of 5.
func usageDurationScore(duration string) float64 {
	fields := strings.Fields(duration)
	if len(fields) == 0 {
		return fallbackUsageScore
	}
	years, err := strconv.Atoi(fields[0])
	if err != nil {
		return fallbackUsageScore
	}
	score := maxUsageScore - years
	if score < minUsageScore {
		score = minUsageScore
	}
	return float64(score)
}

// clampRepairability bounds out-of-range repairability input to [0,10].
// The upstream contract expects callers to stay in range; clamping here
// keeps the scorer total.
func clampRepairability(r int) int {
	if r < minRepairability {
		return minRepairability
	}
	if r > maxRepairability {
		return maxRepairability
	}
	return r
}
