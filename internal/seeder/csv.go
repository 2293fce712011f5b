package seeder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mzare/ecotrace/pkg/logger"
)

// loadProductsFromCSV reads product rows from a CSV export. Expected
// columns (header names matched case-insensitively, spaces and
// underscores interchangeable): category_code, brand,
// packaging_material, shipping_mode, usage_duration,
// repairability_score and optionally price and product_id.
func loadProductsFromCSV(ctx context.Context, path string, stats *Stats) ([]Product, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	col := indexColumns(rows[0])
	required := []string{"category_code", "brand", "packaging_material", "shipping_mode", "usage_duration", "repairability_score"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv missing column %q", name)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	products := make([]Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		repair, err := strconv.Atoi(strings.TrimSpace(row[col["repairability_score"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad repairability_score: %w", i+2, err)
		}

		price := 0.0
		if idx, ok := col["price"]; ok && row[idx] != "" {
			price, err = strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad price: %w", i+2, err)
			}
		}

		productID := uuid.New().String()
		if idx, ok := col["product_id"]; ok && row[idx] != "" {
			productID = strings.TrimSpace(row[idx])
		}

		duration := strings.TrimSpace(row[col["usage_duration"]])
		// Bare year counts become "N years".
		if _, err := strconv.Atoi(duration); err == nil {
			duration += " years"
		}

		products = append(products, Product{
			EventID:            "csv_" + productID,
			ProductID:          productID,
			PackagingMaterial:  strings.TrimSpace(row[col["packaging_material"]]),
			ShippingMode:       strings.TrimSpace(row[col["shipping_mode"]]),
			UsageDuration:      duration,
			RepairabilityScore: repair,
			CategoryCode:       strings.TrimSpace(row[col["category_code"]]),
			Brand:              strings.TrimSpace(row[col["brand"]]),
			Price:              price,
			TS:                 now,
		})
	}

	stats.ProductsGenerated = len(products)
	logger.Get().Info(ctx, "loaded products from csv",
		logger.String("path", path),
		logger.Int("count", len(products)),
	)
	return products, nil
}

// indexColumns normalizes header names to snake_case keys.
func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		col[key] = i
	}
	return col
}
