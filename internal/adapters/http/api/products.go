// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/types"
)

// ProductDependencies defines the interface for product ingestion and
// corpus reads.
type ProductDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, e model.IngestEvent) bool

	GetProduct(ctx context.Context, productID string) (types.ProductEntry, error)
	Alternatives(ctx context.Context, productID string, limit int) []types.ProductEntry
	RankOf(ctx context.Context, productID string) (types.ProductEntry, error)
	ProductsByBrand(ctx context.Context, brand string, limit int) []types.ProductEntry
	ProductsByBand(ctx context.Context, band model.Band, limit int) []types.ProductEntry
}

// ProductsHandler handles product ingestion and lookup requests.
type ProductsHandler struct {
	deps            ProductDependencies
	maxAlternatives int
	maxList         int
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(deps ProductDependencies, maxAlternatives, maxList int) *ProductsHandler {
	return &ProductsHandler{deps: deps, maxAlternatives: maxAlternatives, maxList: maxList}
}

// productRequest mirrors the OpenAPI schema for POST /products.
type productRequest struct {
	EventID   string `json:"event_id"`
	ProductID string `json:"product_id"`
	TS        string `json:"ts"`
	attributesRequest
}

func (p productRequest) validate() error {
	if strings.TrimSpace(p.ProductID) == "" {
		return errors.New("missing product_id")
	}
	if p.TS != "" {
		if _, err := time.Parse(time.RFC3339, p.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return p.attributesRequest.validate()
}

// HandleProducts dispatches the /products collection route:
//
//	POST /products            submit a product for async scoring
//	GET  /products?brand=...  list corpus products of a brand
//	GET  /products?band=...   list corpus products in a footprint band
func (h *ProductsHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostProduct(w, r)
	case http.MethodGet:
		h.handleListProducts(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handlePostProduct accepts a product for asynchronous scoring; the
// response acknowledges receipt only.
func (h *ProductsHandler) handlePostProduct(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_product"
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Re-submissions without an explicit event id dedupe on the
	// product id itself.
	eventID := req.EventID
	if eventID == "" {
		eventID = req.ProductID
	}

	// Idempotency check: mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), eventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}
	event := model.IngestEvent{
		EventID:    eventID,
		ProductID:  req.ProductID,
		Attributes: req.toModel(),
		TS:         ts,
	}
	if ok := h.deps.Enqueue(r.Context(), event); !ok {
		// Roll back the "seen" status so the producer can retry.
		h.deps.Unrecord(r.Context(), eventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

// handleListProducts serves filtered corpus listings. Exactly one of
// the brand and band filters must be given; entries come back in
// corpus insertion order, unranked.
func (h *ProductsHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_products"
	brand := r.URL.Query().Get("brand")
	bandLabel := r.URL.Query().Get("band")
	if (brand == "") == (bandLabel == "") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	limit := h.maxList
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxList {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	if brand != "" {
		writeJSON(w, http.StatusOK, h.deps.ProductsByBrand(r.Context(), brand, limit))
		return
	}
	band, ok := model.ParseBand(bandLabel)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ProductsByBand(r.Context(), band, limit))
}

// HandleGetProduct handles the GET /products/{id} family:
//
//	GET /products/{id}                query a scored product
//	GET /products/{id}/alternatives   greener products, same category
//	GET /products/{id}/rank           sustainability rank, 1 = greenest
func (h *ProductsHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_product"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/products/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch sub {
	case "":
		entry, err := h.deps.GetProduct(r.Context(), id)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, entry)

	case "alternatives":
		limit := h.maxAlternatives
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
				return
			}
			if n < limit {
				limit = n
			}
		}
		// Unknown products yield an empty list, not an error.
		writeJSON(w, http.StatusOK, h.deps.Alternatives(r.Context(), id, limit))

	case "rank":
		entry, err := h.deps.RankOf(r.Context(), id)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, entry)

	default:
		http.NotFound(w, r)
	}
}
