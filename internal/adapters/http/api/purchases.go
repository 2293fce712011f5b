// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/types"
)

// PurchaseDependencies defines the interface for purchase submission.
type PurchaseDependencies interface {
	SubmitPurchase(ctx context.Context, userID, productID string, attrs model.ProductAttributes, choice model.Choice) (types.PurchaseAck, error)
}

// PurchasesHandler handles purchase submissions.
type PurchasesHandler struct {
	deps PurchaseDependencies
}

// NewPurchasesHandler creates a new purchases handler.
func NewPurchasesHandler(deps PurchaseDependencies) *PurchasesHandler {
	return &PurchasesHandler{deps: deps}
}

// purchaseRequest mirrors the OpenAPI schema for POST /purchases.
type purchaseRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Choice    string `json:"choice"`
	attributesRequest
}

func (p purchaseRequest) validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(p.ProductID) == "":
		return errors.New("missing product_id")
	}
	if !model.Choice(p.Choice).Valid() {
		return errors.New("choice must be AI_SUGGESTED or ORIGINAL")
	}
	return p.attributesRequest.validate()
}

// HandlePostPurchase handles POST /purchases requests. The purchase is
// durably recorded and the streak transition applied before the
// acknowledgement is written.
func (h *PurchasesHandler) HandlePostPurchase(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_purchase"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.SubmitPurchase(r.Context(), req.UserID, req.ProductID, req.toModel(), model.Choice(req.Choice))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}
