package predictor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mzare/ecotrace/internal/adapters/predictor"
	"github.com/mzare/ecotrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func attrs() model.ProductAttributes {
	return model.ProductAttributes{
		PackagingMaterial:  "cardboard",
		ShippingMode:       "sea",
		UsageDuration:      "5 years",
		RepairabilityScore: 7,
		CategoryCode:       "electronics.laptop",
		Brand:              "dell",
		Price:              1200,
	}
}

func localBand(model.ProductAttributes) model.Band {
	return model.BandMedium
}

func TestPredictLocalOnly(t *testing.T) {
	Convey("Given a predictor without an endpoint", t, func() {
		client := predictor.NewClient(localBand)

		Convey("When predicting", func() {
			band := client.Predict(context.Background(), attrs())

			Convey("Then the local fallback answers", func() {
				So(band, ShouldEqual, model.BandMedium)
			})
		})
	})
}

func TestPredictRemote(t *testing.T) {
	Convey("Given a classifier answering a valid band", t, func() {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cf_category": "High CF"}`))
		}))
		defer srv.Close()

		client := predictor.NewClient(localBand, predictor.WithEndpoint(srv.URL))

		Convey("When predicting", func() {
			band := client.Predict(context.Background(), attrs())

			Convey("Then the remote band wins over the fallback", func() {
				So(band, ShouldEqual, model.BandHigh)
			})

			Convey("And the request carries the training features", func() {
				So(got["packaging_material"], ShouldEqual, "cardboard")
				So(got["shipping_mode"], ShouldEqual, "sea")
				So(got["usage_duration"], ShouldEqual, "5 years")
				So(got["repairability_score"], ShouldEqual, 7)
				So(got["category_code"], ShouldEqual, "electronics.laptop")
				So(got["brand"], ShouldEqual, "dell")
				So(got["price"], ShouldEqual, 1200)
			})
		})
	})
}

func TestPredictFallsBack(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "an unknown band",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"cf_category": "Mega CF"}`))
			},
		},
		{
			name: "a malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			name: "a server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		Convey("Given a classifier returning "+tc.name, t, func() {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := predictor.NewClient(localBand, predictor.WithEndpoint(srv.URL))

			Convey("Then the local fallback answers", func() {
				So(client.Predict(context.Background(), attrs()), ShouldEqual, model.BandMedium)
			})
		})
	}

	Convey("Given an unreachable classifier", t, func() {
		client := predictor.NewClient(localBand, predictor.WithEndpoint("http://127.0.0.1:1"))

		Convey("Then the local fallback answers", func() {
			So(client.Predict(context.Background(), attrs()), ShouldEqual, model.BandMedium)
		})
	})
}
