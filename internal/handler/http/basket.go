package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// BasketHandler handles HTTP requests for basket endpoints.
type BasketHandler struct {
	service *service.BasketService
	logger  *slog.Logger
}

// NewBasketHandler creates a basket HTTP handler.
func NewBasketHandler(svc *service.BasketService, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{service: svc, logger: logger}
}

// UpdateQuantityRequest is the body of PUT /api/v1/basket/items/{id}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=100"`
}

type basketRemoveResponse struct {
	ID      string        `json:"id"`
	Removed bool          `json:"removed"`
	Basket  domain.Basket `json:"basket"`
}

// Get handles GET /api/v1/basket
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	b, err := h.service.Get(r.Context(), sid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}

// AddItem handles POST /api/v1/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	var req domain.BasketInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.AddItem(r.Context(), sid, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}

// UpdateQuantity handles PUT /api/v1/basket/items/{id}
func (h *BasketHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	var req UpdateQuantityRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	b, err := h.service.UpdateQuantity(r.Context(), sid, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}

// RemoveItem handles DELETE /api/v1/basket/items/{id}
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	b, removed, err := h.service.RemoveItem(r.Context(), sid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, basketRemoveResponse{ID: id, Removed: removed, Basket: b})
}

// Clear handles DELETE /api/v1/basket
func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	b, err := h.service.Clear(r.Context(), sid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}

func (h *BasketHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, h.logger)
}
