// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/mzare/ecotrace/internal/domain/types"
)

// UserDependencies defines the interface for per-user reads.
type UserDependencies interface {
	StreakOf(ctx context.Context, userID string) (types.StreakState, error)
	History(ctx context.Context, userID string) ([]types.PurchaseEntry, error)
}

// UsersHandler handles per-user state requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// HandleGetUser handles the GET /users/{id} family:
//
//	GET /users/{id}/streak    current streak and credits
//	GET /users/{id}/history   purchase records, newest first
func (h *UsersHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/users/")
	id, sub, ok := strings.Cut(path, "/")
	if !ok || id == "" || strings.Contains(sub, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch sub {
	case "streak":
		state, err := h.deps.StreakOf(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, state)

	case "history":
		entries, err := h.deps.History(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		if entries == nil {
			entries = []types.PurchaseEntry{}
		}
		writeJSON(w, http.StatusOK, entries)

	default:
		http.NotFound(w, r)
	}
}
