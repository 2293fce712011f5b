package seeder

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mzare/ecotrace/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	eventIDDivisor     = 10000
)

// Price generation ranges per rough category family.
const (
	priceBaseMin   = 10.0
	priceBaseRange = 90.0
	priceMidMin    = 100.0
	priceMidRange  = 900.0
	priceHighMin   = 500.0
	priceHighRange = 1500.0
)

// categoryProfile describes realistic attribute pools for a product
// category, mirroring observed retail data distributions.
type categoryProfile struct {
	code          string
	brands        []string
	packaging     []string
	shipping      []string
	usageYears    []int
	repairability []int
	priceTier     int
}

const (
	tierBudget = iota
	tierMid
	tierPremium
)

// profiles cover the categories the scoring tables weight explicitly,
// plus a few common retail ones.
var profiles = []categoryProfile{
	{
		code:          "electronics.smartphone",
		brands:        []string{"apple", "samsung", "xiaomi", "huawei", "google"},
		packaging:     []string{"paper", "cardboard", "plastic"},
		shipping:      []string{"air", "road"},
		usageYears:    []int{2, 3, 4},
		repairability: []int{3, 4, 5, 6},
		priceTier:     tierPremium,
	},
	{
		code:          "electronics.laptop",
		brands:        []string{"apple", "dell", "hp", "lenovo", "asus", "acer"},
		packaging:     []string{"cardboard", "plastic"},
		shipping:      []string{"air", "road"},
		usageYears:    []int{4, 5, 6},
		repairability: []int{4, 5, 6, 7, 8},
		priceTier:     tierPremium,
	},
	{
		code:          "electronics.tablet",
		brands:        []string{"apple", "samsung", "lenovo", "huawei"},
		packaging:     []string{"cardboard", "plastic", "paper"},
		shipping:      []string{"air", "road"},
		usageYears:    []int{3, 4, 5},
		repairability: []int{4, 5, 6},
		priceTier:     tierMid,
	},
	{
		code:          "electronics.headphone",
		brands:        []string{"sony", "bose", "jbl", "sennheiser", "beats"},
		packaging:     []string{"cardboard", "plastic", "paper"},
		shipping:      []string{"air", "road"},
		usageYears:    []int{2, 3, 4},
		repairability: []int{3, 4, 5},
		priceTier:     tierBudget,
	},
	{
		code:          "home.appliance",
		brands:        []string{"bosch", "lg", "samsung", "whirlpool", "siemens"},
		packaging:     []string{"cardboard", "plastic"},
		shipping:      []string{"road", "sea"},
		usageYears:    []int{6, 7, 8, 9, 10},
		repairability: []int{5, 6, 7, 8},
		priceTier:     tierPremium,
	},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func pickString(options []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(options))))
	return options[n.Int64()]
}

func pickInt(options []int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(options))))
	return options[n.Int64()]
}

// generateProducts creates the specified number of products with
// unique product IDs.
func generateProducts(ctx context.Context, config *Config, stats *Stats) ([]Product, error) {
	logger.Get().Info(ctx, "generating products with unique ids", logger.Int("numProducts", config.NumProducts))

	products := make([]Product, config.NumProducts)

	productIDs := make([]string, config.NumProducts)
	for i := 0; i < config.NumProducts; i++ {
		productIDs[i] = uuid.New().String()
	}

	type productResult struct {
		index   int
		product Product
		err     error
	}

	resultChan := make(chan productResult, config.NumProducts)

	workerCount := minInt(config.Workers, config.NumProducts)
	perWorker := config.NumProducts / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumProducts
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- productResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- productResult{index: i, product: generateSingleProduct(i, productIDs[i])}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumProducts; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during product generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate product %d: %w", result.index, result.err)
			}
			products[result.index] = result.product
		}
	}

	stats.ProductsGenerated = len(products)
	logger.Get().Info(ctx, "generated products successfully", logger.Int("count", len(products)))

	return products, nil
}

// generateSingleProduct creates a single product from a random
// category profile.
func generateSingleProduct(index int, productID string) Product {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(profiles))))
	profile := profiles[n.Int64()]

	randNum, _ := rand.Int(rand.Reader, big.NewInt(eventIDDivisor))
	eventID := "seed_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	return Product{
		EventID:            eventID,
		ProductID:          productID,
		PackagingMaterial:  pickString(profile.packaging),
		ShippingMode:       pickString(profile.shipping),
		UsageDuration:      strconv.Itoa(pickInt(profile.usageYears)) + " years",
		RepairabilityScore: pickInt(profile.repairability),
		CategoryCode:       profile.code,
		Brand:              pickString(profile.brands),
		Price:              generatePrice(profile.priceTier),
		TS:                 time.Now().UTC().Format(time.RFC3339),
	}
}

// generatePrice creates a price within the profile's tier.
func generatePrice(tier int) float64 {
	switch tier {
	case tierBudget:
		return priceBaseMin + getRandomFloat()*priceBaseRange
	case tierMid:
		return priceMidMin + getRandomFloat()*priceMidRange
	case tierPremium:
		return priceHighMin + getRandomFloat()*priceHighRange
	default:
		return priceMidMin + getRandomFloat()*priceMidRange
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
