package scoring_test

import (
	"testing"

	scoring "github.com/mzare/ecotrace/internal/domain/scoring"
	"github.com/mzare/ecotrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func mustTables(t *testing.T) *scoring.Tables {
	t.Helper()
	tables, err := scoring.LoadTables()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	return tables
}

func TestCalculator_Score(t *testing.T) {
	Convey("Given a calculator with the embedded tables", t, func() {
		calc := scoring.NewCalculator(mustTables(t))

		Convey("When scoring a product with all-unknown brand and category", func() {
			attrs := model.ProductAttributes{
				PackagingMaterial:  "plastic",
				ShippingMode:       "air",
				UsageDuration:      "1 years",
				RepairabilityScore: 2,
				CategoryCode:       "no.such.category",
				Brand:              "no-such-brand",
				Price:              100,
			}

			Convey("Then the score matches the fixed weights exactly", func() {
				// 8*2.5 + 10*3.0 + 9*2.5 + 8*2.0 = 88.5
				score := calc.Score(attrs)
				So(score.Value, ShouldEqual, 88.5)
				So(score.Band, ShouldEqual, model.BandHigh)
			})

			Convey("And scoring twice yields bit-identical output", func() {
				first := calc.Score(attrs)
				second := calc.Score(attrs)
				So(second.Value, ShouldEqual, first.Value)
				So(second.Band, ShouldEqual, first.Band)
			})
		})

		Convey("When the brand and category are known", func() {
			attrs := model.ProductAttributes{
				PackagingMaterial:  "cardboard",
				ShippingMode:       "sea",
				UsageDuration:      "5 years",
				RepairabilityScore: 7,
				CategoryCode:       "electronics.laptop",
				Brand:              "dell",
				Price:              1200,
			}

			Convey("Then the multiplier and weight apply", func() {
				// base = 4*2.5 + 5*3.0 + 5*2.5 + 3*2.0 = 43.5
				// raw = 43.5 * 0.9 * 1.2 = 46.98
				score := calc.Score(attrs)
				So(score.Value, ShouldAlmostEqual, 46.98, 1e-9)
				So(score.Band, ShouldEqual, model.BandMedium)
			})
		})

		Convey("When the brand is capitalized differently", func() {
			lower := calc.Score(model.ProductAttributes{
				PackagingMaterial: "paper", ShippingMode: "road",
				UsageDuration: "3 years", RepairabilityScore: 5,
				CategoryCode: "electronics.smartphone", Brand: "samsung",
			})
			upper := calc.Score(model.ProductAttributes{
				PackagingMaterial: "Paper", ShippingMode: "Road",
				UsageDuration: "3 years", RepairabilityScore: 5,
				CategoryCode: "electronics.smartphone", Brand: "Samsung",
			})

			Convey("Then the result is identical", func() {
				So(upper.Value, ShouldEqual, lower.Value)
			})
		})

		Convey("When the result would exceed the scale", func() {
			attrs := model.ProductAttributes{
				PackagingMaterial:  "plastic",
				ShippingMode:       "air",
				UsageDuration:      "1 years",
				RepairabilityScore: 0,
				CategoryCode:       "home.appliance",
				Brand:              "apple",
			}

			Convey("Then the value clamps to 100", func() {
				score := calc.Score(attrs)
				So(score.Value, ShouldEqual, 100)
				So(score.Band, ShouldEqual, model.BandHigh)
			})
		})

		Convey("When repairability is out of range", func() {
			low := calc.Score(model.ProductAttributes{
				PackagingMaterial: "paper", ShippingMode: "local",
				UsageDuration: "9 years", RepairabilityScore: -5,
				CategoryCode: "x", Brand: "y",
			})
			clamped := calc.Score(model.ProductAttributes{
				PackagingMaterial: "paper", ShippingMode: "local",
				UsageDuration: "9 years", RepairabilityScore: 0,
				CategoryCode: "x", Brand: "y",
			})

			Convey("Then it clamps to the valid range", func() {
				So(low.Value, ShouldEqual, clamped.Value)
			})
		})
	})
}

func TestCalculator_UsageDuration(t *testing.T) {
	Convey("Given a calculator with the embedded tables", t, func() {
		calc := scoring.NewCalculator(mustTables(t))

		base := model.ProductAttributes{
			PackagingMaterial:  "paper",
			ShippingMode:       "local",
			RepairabilityScore: 10,
			CategoryCode:       "unknown",
			Brand:              "unknown",
		}
		// With paper(3), local(2), repair 0: base = 7.5 + 6 + usage*2.5
		scoreFor := func(duration string) float64 {
			attrs := base
			attrs.UsageDuration = duration
			return calc.Score(attrs).Value
		}

		Convey("Then '2 years' yields a usage score of 8", func() {
			So(scoreFor("2 years"), ShouldEqual, 13.5+8*2.5)
		})

		Convey("And '15 years' floors at 1", func() {
			So(scoreFor("15 years"), ShouldEqual, 13.5+1*2.5)
		})

		Convey("And unparseable input falls back to 5", func() {
			So(scoreFor("abc"), ShouldEqual, 13.5+5*2.5)
			So(scoreFor(""), ShouldEqual, 13.5+5*2.5)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the band thresholds", t, func() {
		Convey("Then values classify into the three bands", func() {
			So(scoring.Classify(0), ShouldEqual, model.BandLow)
			So(scoring.Classify(39.99), ShouldEqual, model.BandLow)
			So(scoring.Classify(40), ShouldEqual, model.BandMedium)
			So(scoring.Classify(69.99), ShouldEqual, model.BandMedium)
			So(scoring.Classify(70), ShouldEqual, model.BandHigh)
			So(scoring.Classify(100), ShouldEqual, model.BandHigh)
		})
	})
}
