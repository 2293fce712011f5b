package scoring_test

import (
	"os"
	"path/filepath"
	"testing"

	scoring "github.com/mzare/ecotrace/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadTables(t *testing.T) {
	Convey("Given the embedded score tables", t, func() {
		tables, err := scoring.LoadTables()

		Convey("Then they load without error", func() {
			So(err, ShouldBeNil)
			So(tables, ShouldNotBeNil)
		})

		Convey("And known attribute values resolve", func() {
			So(tables.PackagingScore("plastic"), ShouldEqual, 8)
			So(tables.PackagingScore("biodegradable"), ShouldEqual, 2)
			So(tables.ShippingScore("air"), ShouldEqual, 10)
			So(tables.ShippingScore("local"), ShouldEqual, 2)
			So(tables.CategoryWeight("home.appliance"), ShouldEqual, 1.5)
			So(tables.BrandMultiplier("apple"), ShouldEqual, 1.2)
		})

		Convey("And lookups are case-insensitive for packaging, shipping and brand", func() {
			So(tables.PackagingScore("Plastic"), ShouldEqual, 8)
			So(tables.ShippingScore("AIR"), ShouldEqual, 10)
			So(tables.BrandMultiplier("Apple"), ShouldEqual, 1.2)
		})

		Convey("And the category code matches exactly", func() {
			So(tables.CategoryWeight("HOME.APPLIANCE"), ShouldEqual, 1.0)
			So(tables.CategoryWeight("electronics"), ShouldEqual, 1.0)
		})

		Convey("And unknown values fall back to neutral defaults", func() {
			So(tables.PackagingScore("vibranium"), ShouldEqual, 5)
			So(tables.ShippingScore("teleport"), ShouldEqual, 5)
			So(tables.BrandMultiplier("no-such-brand"), ShouldEqual, 1.0)
			So(tables.CategoryWeight("no.such.category"), ShouldEqual, 1.0)
		})
	})
}

func TestLoadTablesFromFile(t *testing.T) {
	Convey("Given a tables override file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "tables.yaml")
		content := []byte(`
packaging:
  tin: 7
packaging_default: 4
shipping:
  drone: 1
shipping_default: 3
category_weights:
  toys.plush: 0.5
brand_multipliers:
  acme: 1.3
`)
		So(os.WriteFile(path, content, 0600), ShouldBeNil)

		Convey("When loading from the file", func() {
			tables, err := scoring.LoadTablesFromFile(path)

			Convey("Then the override values win", func() {
				So(err, ShouldBeNil)
				So(tables.PackagingScore("tin"), ShouldEqual, 7)
				So(tables.PackagingScore("plastic"), ShouldEqual, 4)
				So(tables.ShippingScore("drone"), ShouldEqual, 1)
				So(tables.CategoryWeight("toys.plush"), ShouldEqual, 0.5)
				So(tables.BrandMultiplier("ACME"), ShouldEqual, 1.3)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := scoring.LoadTablesFromFile(filepath.Join(dir, "missing.yaml"))

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the file is malformed", func() {
			bad := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(bad, []byte("packaging: [not a map"), 0600), ShouldBeNil)
			_, err := scoring.LoadTablesFromFile(bad)

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
