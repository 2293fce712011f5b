package alternatives_test

import (
	"testing"

	"github.com/mzare/ecotrace/internal/domain/alternatives"
	"github.com/mzare/ecotrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func product(id, category string, score float64) model.Product {
	return model.Product{
		ProductID:  id,
		Attributes: model.ProductAttributes{CategoryCode: category},
		Score:      model.CFScore{Value: score},
	}
}

func TestFind(t *testing.T) {
	Convey("Given a scored corpus", t, func() {
		corpus := []model.Product{
			product("ref", "electronics.tablet", 80),
			product("worse", "electronics.tablet", 85),
			product("better-1", "electronics.tablet", 60),
			product("better-2", "electronics.tablet", 40),
			product("equal", "electronics.tablet", 80),
			product("other-cat", "electronics.laptop", 10),
			product("better-3", "electronics.tablet", 70),
		}

		Convey("When finding alternatives for a known product", func() {
			alts := alternatives.Find("ref", corpus, 10)

			Convey("Then every alternative shares the category and beats the score", func() {
				So(alts, ShouldHaveLength, 3)
				for _, alt := range alts {
					So(alt.Attributes.CategoryCode, ShouldEqual, "electronics.tablet")
					So(alt.Score.Value, ShouldBeLessThan, 80)
				}
			})

			Convey("And the results are sorted ascending by score", func() {
				So(alts[0].ProductID, ShouldEqual, "better-2")
				So(alts[1].ProductID, ShouldEqual, "better-1")
				So(alts[2].ProductID, ShouldEqual, "better-3")
			})
		})

		Convey("When the limit truncates the result", func() {
			alts := alternatives.Find("ref", corpus, 2)

			Convey("Then only the greenest entries remain", func() {
				So(alts, ShouldHaveLength, 2)
				So(alts[0].ProductID, ShouldEqual, "better-2")
				So(alts[1].ProductID, ShouldEqual, "better-1")
			})
		})

		Convey("When scores tie", func() {
			tied := []model.Product{
				product("ref", "c", 50),
				product("tie-a", "c", 30),
				product("tie-b", "c", 30),
			}
			alts := alternatives.Find("ref", tied, 10)

			Convey("Then ties keep their corpus order", func() {
				So(alts, ShouldHaveLength, 2)
				So(alts[0].ProductID, ShouldEqual, "tie-a")
				So(alts[1].ProductID, ShouldEqual, "tie-b")
			})
		})

		Convey("When the product id is unknown", func() {
			alts := alternatives.Find("missing", corpus, 10)

			Convey("Then the result is empty", func() {
				So(alts, ShouldBeEmpty)
			})
		})

		Convey("When the limit is non-positive", func() {
			So(alternatives.Find("ref", corpus, 0), ShouldBeEmpty)
			So(alternatives.Find("ref", corpus, -1), ShouldBeEmpty)
		})
	})
}
