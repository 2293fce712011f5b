// Package repository provides the product corpus store and the durable
// purchase ledger.
package repository

import (
	"context"

	"github.com/mzare/ecotrace/internal/domain/model"
)

// RankedProduct pairs a corpus product with its sustainability rank
// (1 = lowest carbon footprint in the corpus).
type RankedProduct struct {
	Rank    int
	Product model.Product
}

// CorpusStore provides read/write access to the scored product corpus.
// The in-memory implementation stands in for a vector-search store; the
// interface is what the rest of the system depends on, so a real
// backing store can be substituted without touching the scorer or the
// alternatives logic.
type CorpusStore interface {
	// Add inserts a product, replacing any previous record with the
	// same id. Returns true when the product was new.
	Add(ctx context.Context, p model.Product) (bool, error)

	// GetByID returns the product with the given id.
	// Returns ErrNotFound if the product is unknown.
	GetByID(ctx context.Context, productID string) (model.Product, error)

	// FilterByCategory returns products with the exact category code in
	// insertion order.
	FilterByCategory(ctx context.Context, categoryCode string) []model.Product

	// FilterByBrand returns up to limit products of a brand
	// (case-insensitive) in insertion order.
	FilterByBrand(ctx context.Context, brand string, limit int) []model.Product

	// FilterByBand returns up to limit products in a footprint band in
	// insertion order.
	FilterByBand(ctx context.Context, band model.Band, limit int) []model.Product

	// GreenestN returns the n lowest-footprint products, most
	// sustainable first.
	GreenestN(ctx context.Context, n int) ([]model.Product, error)

	// Rank returns the sustainability rank of a product.
	// Returns ErrNotFound if the product is unknown.
	Rank(ctx context.Context, productID string) (RankedProduct, error)

	// Count returns the number of products in the corpus.
	Count(ctx context.Context) int
}
