// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mzare/ecotrace/internal/adapters/repository"
	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Deduplication for product ingestion.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)

	// Enqueue pushes an ingestion event for async scoring. Returns
	// false on backpressure.
	Enqueue(ctx context.Context, e model.IngestEvent) bool

	// Synchronous scoring operations.
	ScoreProduct(ctx context.Context, attrs model.ProductAttributes) types.ScoreResult
	PredictBand(ctx context.Context, attrs model.ProductAttributes) types.ScoreResult

	// Corpus read operations.
	GetProduct(ctx context.Context, productID string) (types.ProductEntry, error)
	Alternatives(ctx context.Context, productID string, limit int) []types.ProductEntry
	RankOf(ctx context.Context, productID string) (types.ProductEntry, error)
	Greenest(ctx context.Context, n int) ([]types.ProductEntry, error)
	ProductsByBrand(ctx context.Context, brand string, limit int) []types.ProductEntry
	ProductsByBand(ctx context.Context, band model.Band, limit int) []types.ProductEntry

	// Purchase and gamification operations.
	SubmitPurchase(ctx context.Context, userID, productID string, attrs model.ProductAttributes, choice model.Choice) (types.PurchaseAck, error)
	StreakOf(ctx context.Context, userID string) (types.StreakState, error)
	History(ctx context.Context, userID string) ([]types.PurchaseEntry, error)

	// Advisory insights.
	Recommendations(ctx context.Context, userID, productID string, limit int) (types.Insights, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	scoreHandler           *ScoreHandler
	predictHandler         *PredictHandler
	productsHandler        *ProductsHandler
	greenestHandler        *GreenestHandler
	purchasesHandler       *PurchasesHandler
	usersHandler           *UsersHandler
	recommendationsHandler *RecommendationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxAlternatives, maxGreenestLimit int) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		scoreHandler:           NewScoreHandler(deps),
		predictHandler:         NewPredictHandler(deps),
		productsHandler:        NewProductsHandler(deps, maxAlternatives, maxGreenestLimit),
		greenestHandler:        NewGreenestHandler(deps, maxGreenestLimit),
		purchasesHandler:       NewPurchasesHandler(deps),
		usersHandler:           NewUsersHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps, maxAlternatives),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/score", instrument("score", s.scoreHandler.HandleScore))
	mux.HandleFunc("/predict", instrument("predict", s.predictHandler.HandlePredict))
	mux.HandleFunc("/products", instrument("products", s.productsHandler.HandleProducts))
	mux.HandleFunc("/products/", instrument("products", s.productsHandler.HandleGetProduct))
	mux.HandleFunc("/greenest", instrument("greenest", s.greenestHandler.HandleGetGreenest))
	mux.HandleFunc("/purchases", instrument("purchases", s.purchasesHandler.HandlePostPurchase))
	mux.HandleFunc("/users/", instrument("users", s.usersHandler.HandleGetUser))
	mux.HandleFunc("/recommendations", instrument("recommendations", s.recommendationsHandler.HandlePostRecommendations))
}

// attributesRequest mirrors the OpenAPI schema for raw product
// attributes carried by scoring and ingestion requests.
type attributesRequest struct {
	PackagingMaterial  string  `json:"packaging_material"`
	ShippingMode       string  `json:"shipping_mode"`
	UsageDuration      string  `json:"usage_duration"`
	RepairabilityScore int     `json:"repairability_score"`
	CategoryCode       string  `json:"category_code"`
	Brand              string  `json:"brand"`
	Price              float64 `json:"price"`
}

func (a attributesRequest) validate() error {
	switch {
	case strings.TrimSpace(a.PackagingMaterial) == "":
		return errors.New("missing packaging_material")
	case strings.TrimSpace(a.ShippingMode) == "":
		return errors.New("missing shipping_mode")
	case strings.TrimSpace(a.UsageDuration) == "":
		return errors.New("missing usage_duration")
	case strings.TrimSpace(a.CategoryCode) == "":
		return errors.New("missing category_code")
	case strings.TrimSpace(a.Brand) == "":
		return errors.New("missing brand")
	case a.Price < 0:
		return errors.New("negative price")
	}
	return nil
}

func (a attributesRequest) toModel() model.ProductAttributes {
	return model.ProductAttributes{
		PackagingMaterial:  a.PackagingMaterial,
		ShippingMode:       a.ShippingMode,
		UsageDuration:      a.UsageDuration,
		RepairabilityScore: a.RepairabilityScore,
		CategoryCode:       a.CategoryCode,
		Brand:              a.Brand,
		Price:              a.Price,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
