// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mzare/ecotrace/internal/domain/types"
)

// RecommendationDependencies defines the interface for advisory
// insights.
type RecommendationDependencies interface {
	Recommendations(ctx context.Context, userID, productID string, limit int) (types.Insights, error)
}

// RecommendationsHandler handles advisory insight requests.
type RecommendationsHandler struct {
	deps            RecommendationDependencies
	maxAlternatives int
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationDependencies, maxAlternatives int) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps, maxAlternatives: maxAlternatives}
}

// recommendationsRequest mirrors the OpenAPI schema for
// POST /recommendations.
type recommendationsRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Limit     int    `json:"limit"`
}

func (r recommendationsRequest) validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(r.ProductID) == "":
		return errors.New("missing product_id")
	case r.Limit < 0:
		return errors.New("negative limit")
	}
	return nil
}

// HandlePostRecommendations handles POST /recommendations requests.
func (h *RecommendationsHandler) HandlePostRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendations"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	limit := req.Limit
	if limit == 0 || limit > h.maxAlternatives {
		limit = h.maxAlternatives
	}
	insights, err := h.deps.Recommendations(r.Context(), req.UserID, req.ProductID, limit)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, insights)
}
