package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

type countResponse struct {
	Count int `json:"count"`
}

type containsResponse struct {
	ID       string `json:"id"`
	Contains bool   `json:"contains"`
}

type removeResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

type toggleResponse struct {
	ID         string `json:"id"`
	InWishlist bool   `json:"inWishlist"`
}

// List handles GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	sortKey, ok := domain.ParseSortKey(r.URL.Query().Get("sort"))
	if !ok {
		h.writeError(w, r, apperrors.InvalidInput("unknown sort key"))
		return
	}

	view, err := h.service.List(r.Context(), sid, service.ListOptions{
		Sort:     sortKey,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// Add handles POST /api/v1/wishlist/items
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	var req domain.EntryInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	entry, err := h.service.Add(r.Context(), sid, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, entry)
}

// Contains handles GET /api/v1/wishlist/items/{id}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	ok, err := h.service.Contains(r.Context(), sid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, containsResponse{ID: id, Contains: ok})
}

// Remove handles DELETE /api/v1/wishlist/items/{id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	removed, err := h.service.Remove(r.Context(), sid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, removeResponse{ID: id, Removed: removed})
}

// Toggle handles POST /api/v1/wishlist/items/{id}/toggle. The body carries
// the product in case it has to be added.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req domain.EntryInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = id
	}
	if req.ID != id {
		h.writeError(w, r, apperrors.InvalidInput("body id does not match path id"))
		return
	}

	in, err := h.service.Toggle(r.Context(), sid, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, toggleResponse{ID: id, InWishlist: in})
}

// Count handles GET /api/v1/wishlist/count
func (h *WishlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	n, err := h.service.Count(r.Context(), sid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, countResponse{Count: n})
}

// Clear handles DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	if err := h.service.Clear(r.Context(), sid); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, countResponse{Count: 0})
}

// MoveToBasket handles POST /api/v1/wishlist/move-to-basket
func (h *WishlistHandler) MoveToBasket(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	res, err := h.service.MoveToBasket(r.Context(), sid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

func (h *WishlistHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, h.logger)
}

// writeError sends validation failures with per-field messages and every
// other error through the standard envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, logger)
}
