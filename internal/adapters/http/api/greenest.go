// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mzare/ecotrace/internal/domain/types"
)

// GreenestDependencies defines the interface for the greenest listing.
type GreenestDependencies interface {
	Greenest(ctx context.Context, n int) ([]types.ProductEntry, error)
}

// GreenestHandler handles greenest listing requests.
type GreenestHandler struct {
	deps     GreenestDependencies
	maxLimit int
}

// NewGreenestHandler creates a new greenest handler.
func NewGreenestHandler(deps GreenestDependencies, maxLimit int) *GreenestHandler {
	return &GreenestHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetGreenest handles GET /greenest?limit=N requests.
func (h *GreenestHandler) HandleGetGreenest(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_greenest"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Greenest(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
