package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/mzare/ecotrace/internal/adapters/repository"
	"github.com/mzare/ecotrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id, category, brand string, value float64) model.Product {
	band := model.BandLow
	switch {
	case value >= 70:
		band = model.BandHigh
	case value >= 40:
		band = model.BandMedium
	}
	return model.Product{
		ProductID: id,
		Attributes: model.ProductAttributes{
			CategoryCode: category,
			Brand:        brand,
		},
		Score: model.CFScore{Value: value, Band: band},
	}
}

func TestTreapCorpus_Add(t *testing.T) {
	Convey("Given an empty corpus", t, func() {
		ctx := context.Background()
		corpus := repository.NewTreapCorpus(ctx)

		Convey("When adding a product", func() {
			inserted, err := corpus.Add(ctx, scored("p1", "electronics.laptop", "dell", 47.0))

			Convey("Then it inserts and is retrievable", func() {
				So(err, ShouldBeNil)
				So(inserted, ShouldBeTrue)
				So(corpus.Count(ctx), ShouldEqual, 1)

				got, err := corpus.GetByID(ctx, "p1")
				So(err, ShouldBeNil)
				So(got.Score.Value, ShouldEqual, 47.0)
			})
		})

		Convey("When adding the same id again with a new score", func() {
			_, err := corpus.Add(ctx, scored("p1", "electronics.laptop", "dell", 47.0))
			So(err, ShouldBeNil)
			inserted, err := corpus.Add(ctx, scored("p1", "electronics.laptop", "dell", 12.0))

			Convey("Then it replaces instead of duplicating", func() {
				So(err, ShouldBeNil)
				So(inserted, ShouldBeFalse)
				So(corpus.Count(ctx), ShouldEqual, 1)

				got, err := corpus.GetByID(ctx, "p1")
				So(err, ShouldBeNil)
				So(got.Score.Value, ShouldEqual, 12.0)
			})
		})

		Convey("When adding a product with no id", func() {
			_, err := corpus.Add(ctx, model.Product{})

			Convey("Then the add is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestTreapCorpus_GreenestAndRank(t *testing.T) {
	Convey("Given a corpus with mixed scores", t, func() {
		ctx := context.Background()
		corpus := repository.NewTreapCorpus(ctx)

		scores := map[string]float64{
			"dirty":    92.5,
			"middling": 55.0,
			"green":    14.0,
			"greener":  9.5,
		}
		for id, v := range scores {
			_, err := corpus.Add(ctx, scored(id, "c", "b", v))
			So(err, ShouldBeNil)
		}

		Convey("When listing the greenest products", func() {
			top, err := corpus.GreenestN(ctx, 3)

			Convey("Then they come back in ascending score order", func() {
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].ProductID, ShouldEqual, "greener")
				So(top[1].ProductID, ShouldEqual, "green")
				So(top[2].ProductID, ShouldEqual, "middling")
			})
		})

		Convey("When the limit exceeds the corpus size", func() {
			top, err := corpus.GreenestN(ctx, 100)

			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 4)
		})

		Convey("When the limit is invalid", func() {
			_, err := corpus.GreenestN(ctx, 0)

			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})

		Convey("When querying ranks", func() {
			Convey("Then ranks are 1-based and follow the score order", func() {
				ranked, err := corpus.Rank(ctx, "greener")
				So(err, ShouldBeNil)
				So(ranked.Rank, ShouldEqual, 1)

				ranked, err = corpus.Rank(ctx, "dirty")
				So(err, ShouldBeNil)
				So(ranked.Rank, ShouldEqual, 4)
				So(ranked.Product.Score.Value, ShouldEqual, 92.5)
			})

			Convey("And an unknown product yields ErrNotFound", func() {
				_, err := corpus.Rank(ctx, "nope")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When a rescore moves a product", func() {
			_, err := corpus.Add(ctx, scored("dirty", "c", "b", 1.0))
			So(err, ShouldBeNil)

			ranked, err := corpus.Rank(ctx, "dirty")
			So(err, ShouldBeNil)
			So(ranked.Rank, ShouldEqual, 1)
		})

		Convey("When scores tie", func() {
			_, err := corpus.Add(ctx, scored("aaa", "c", "b", 55.0))
			So(err, ShouldBeNil)

			Convey("Then the id breaks the tie ascending", func() {
				a, err := corpus.Rank(ctx, "aaa")
				So(err, ShouldBeNil)
				m, err := corpus.Rank(ctx, "middling")
				So(err, ShouldBeNil)
				So(a.Rank, ShouldEqual, m.Rank-1)
			})
		})
	})
}

func TestTreapCorpus_Filters(t *testing.T) {
	Convey("Given a corpus spanning categories, brands and bands", t, func() {
		ctx := context.Background()
		corpus := repository.NewTreapCorpus(ctx)

		products := []model.Product{
			scored("s1", "electronics.smartphone", "Samsung", 30),
			scored("l1", "electronics.laptop", "dell", 50),
			scored("s2", "electronics.smartphone", "apple", 80),
			scored("l2", "electronics.laptop", "DELL", 20),
		}
		for _, p := range products {
			_, err := corpus.Add(ctx, p)
			So(err, ShouldBeNil)
		}

		Convey("When filtering by category", func() {
			phones := corpus.FilterByCategory(ctx, "electronics.smartphone")

			Convey("Then results keep insertion order", func() {
				So(phones, ShouldHaveLength, 2)
				So(phones[0].ProductID, ShouldEqual, "s1")
				So(phones[1].ProductID, ShouldEqual, "s2")
			})

			Convey("And an unknown category is empty", func() {
				So(corpus.FilterByCategory(ctx, "toys.plush"), ShouldBeEmpty)
			})
		})

		Convey("When filtering by brand", func() {
			dells := corpus.FilterByBrand(ctx, "dell", 0)

			Convey("Then the match is case-insensitive", func() {
				So(dells, ShouldHaveLength, 2)
				So(dells[0].ProductID, ShouldEqual, "l1")
				So(dells[1].ProductID, ShouldEqual, "l2")
			})

			Convey("And a positive limit truncates", func() {
				So(corpus.FilterByBrand(ctx, "DELL", 1), ShouldHaveLength, 1)
			})
		})

		Convey("When filtering by band", func() {
			low := corpus.FilterByBand(ctx, model.BandLow, 0)
			high := corpus.FilterByBand(ctx, model.BandHigh, 0)

			So(low, ShouldHaveLength, 2)
			So(high, ShouldHaveLength, 1)
			So(high[0].ProductID, ShouldEqual, "s2")
		})
	})
}

func TestTreapCorpus_Scale(t *testing.T) {
	Convey("Given a few hundred inserts", t, func() {
		ctx := context.Background()
		corpus := repository.NewTreapCorpus(ctx)

		const n = 500
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("p%03d", i)
			_, err := corpus.Add(ctx, scored(id, "c", "b", float64(i%100)))
			So(err, ShouldBeNil)
		}

		Convey("Then the count and rank extremes hold", func() {
			So(corpus.Count(ctx), ShouldEqual, n)

			top, err := corpus.GreenestN(ctx, 1)
			So(err, ShouldBeNil)
			So(top[0].Score.Value, ShouldEqual, 0)

			ranked, err := corpus.Rank(ctx, top[0].ProductID)
			So(err, ShouldBeNil)
			So(ranked.Rank, ShouldEqual, 1)
		})
	})
}
