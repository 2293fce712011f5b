// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/types"
)

// PredictDependencies defines the interface for band prediction.
type PredictDependencies interface {
	PredictBand(ctx context.Context, attrs model.ProductAttributes) types.ScoreResult
}

// PredictHandler handles band prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req attributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.PredictBand(r.Context(), req.toModel()))
}
