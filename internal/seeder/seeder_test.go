package seeder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateProducts(t *testing.T) {
	Convey("Given a generation config", t, func() {
		ctx := context.Background()
		cfg := &Config{NumProducts: 50, Workers: 4}
		stats := &Stats{}

		Convey("When generating products", func() {
			products, err := generateProducts(ctx, cfg, stats)

			Convey("Then the requested count is produced", func() {
				So(err, ShouldBeNil)
				So(products, ShouldHaveLength, 50)
				So(stats.ProductsGenerated, ShouldEqual, 50)
			})

			Convey("And every product is well formed", func() {
				seen := make(map[string]bool)
				for _, p := range products {
					So(p.ProductID, ShouldNotBeBlank)
					So(seen[p.ProductID], ShouldBeFalse)
					seen[p.ProductID] = true

					So(p.EventID, ShouldStartWith, "seed_")
					So(p.CategoryCode, ShouldContainSubstring, ".")
					So(p.Brand, ShouldNotBeBlank)
					So(p.PackagingMaterial, ShouldNotBeBlank)
					So(p.ShippingMode, ShouldNotBeBlank)
					So(strings.HasSuffix(p.UsageDuration, " years"), ShouldBeTrue)
					So(p.RepairabilityScore, ShouldBeBetweenOrEqual, 0, 10)
					So(p.Price, ShouldBeGreaterThan, 0)

					_, err := time.Parse(time.RFC3339, p.TS)
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := generateProducts(cancelled, cfg, stats)

			Convey("Then generation aborts", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoadProductsFromCSV(t *testing.T) {
	Convey("Given a CSV export", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		write := func(name, content string) string {
			path := filepath.Join(dir, name)
			So(os.WriteFile(path, []byte(content), 0600), ShouldBeNil)
			return path
		}

		Convey("When the file is well formed", func() {
			path := write("products.csv",
				"Category Code,Brand,Packaging Material,Shipping Mode,Usage Duration,Repairability Score,Price,Product ID\n"+
					"electronics.laptop,dell,cardboard,sea,5,7,1200.50,lap-1\n"+
					"electronics.smartphone,apple,plastic,air,2 years,3,,\n")
			stats := &Stats{}

			products, err := loadProductsFromCSV(ctx, path, stats)

			Convey("Then the rows are parsed with headers normalized", func() {
				So(err, ShouldBeNil)
				So(products, ShouldHaveLength, 2)
				So(stats.ProductsGenerated, ShouldEqual, 2)

				So(products[0].ProductID, ShouldEqual, "lap-1")
				So(products[0].EventID, ShouldEqual, "csv_lap-1")
				So(products[0].Brand, ShouldEqual, "dell")
				So(products[0].Price, ShouldEqual, 1200.50)
			})

			Convey("And bare year counts gain the years suffix", func() {
				So(products[0].UsageDuration, ShouldEqual, "5 years")
				So(products[1].UsageDuration, ShouldEqual, "2 years")
			})

			Convey("And a missing product id gets a generated one", func() {
				So(products[1].ProductID, ShouldNotBeBlank)
				So(products[1].Price, ShouldEqual, 0)
			})
		})

		Convey("When a required column is missing", func() {
			path := write("missing.csv",
				"category_code,brand,packaging_material,shipping_mode,usage_duration\n"+
					"electronics.laptop,dell,cardboard,sea,5\n")

			_, err := loadProductsFromCSV(ctx, path, &Stats{})

			Convey("Then loading fails naming the column", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "repairability_score")
			})
		})

		Convey("When the repairability score is not numeric", func() {
			path := write("bad.csv",
				"category_code,brand,packaging_material,shipping_mode,usage_duration,repairability_score\n"+
					"electronics.laptop,dell,cardboard,sea,5,often\n")

			_, err := loadProductsFromCSV(ctx, path, &Stats{})
			So(err, ShouldNotBeNil)
		})

		Convey("When the file has only a header", func() {
			path := write("empty.csv", "category_code,brand,packaging_material,shipping_mode,usage_duration,repairability_score\n")

			_, err := loadProductsFromCSV(ctx, path, &Stats{})
			So(err, ShouldNotBeNil)
		})
	})
}
