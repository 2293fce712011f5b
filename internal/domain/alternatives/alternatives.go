// Package alternatives surfaces lower-footprint substitutes for a
// product from a scored corpus.
package alternatives

import (
	"sort"

	"github.com/mzare/ecotrace/internal/domain/model"
)

// Find locates the reference product by id in corpus and returns up to
// limit products from the same category whose score is strictly lower,
// ordered most sustainable first. Ties keep their original corpus
// order. An unknown product id yields an empty result, not an error.
//
// The guarantee is a strict-improvement set: every returned product
// shares the reference's category code and beats its score.
func Find(productID string, corpus []model.Product, limit int) []model.Product {
	if limit <= 0 {
		return nil
	}

	var ref *model.Product
	for i := range corpus {
		if corpus[i].ProductID == productID {
			ref = &corpus[i]
			break
		}
	}
	if ref == nil {
		return nil
	}

	out := make([]model.Product, 0, limit)
	for i := range corpus {
		p := &corpus[i]
		if p.ProductID == ref.ProductID {
			continue
		}
		if p.Attributes.CategoryCode != ref.Attributes.CategoryCode {
			continue
		}
		if p.Score.Value < ref.Score.Value {
			out = append(out, *p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Value < out[j].Score.Value
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
