// Package http provides HTTP handlers for the cart module.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/httpserver"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/cart/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type Handler struct {
	addItem    *commands.AddItemHandler
	updateItem *commands.UpdateItemQuantityHandler
	removeItem *commands.RemoveItemHandler
	clearCart  *commands.ClearCartHandler
	getCart    *queries.GetCartHandler
	cartTotals *queries.CartTotalsHandler
	itemCount  *queries.ItemCountHandler
}

func NewHandler(
	addItem *commands.AddItemHandler,
	updateItem *commands.UpdateItemQuantityHandler,
	removeItem *commands.RemoveItemHandler,
	clearCart *commands.ClearCartHandler,
	getCart *queries.GetCartHandler,
	cartTotals *queries.CartTotalsHandler,
	itemCount *queries.ItemCountHandler,
) *Handler {
	return &Handler{
		addItem:    addItem,
		updateItem: updateItem,
		removeItem: removeItem,
		clearCart:  clearCart,
		getCart:    getCart,
		cartTotals: cartTotals,
		itemCount:  itemCount,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("GET /cart/totals", h.handleGetTotals)
	mux.HandleFunc("GET /cart/count", h.handleGetCount)
	mux.HandleFunc("POST /cart/items", h.handleAddItem)
	mux.HandleFunc("PUT /cart/items/{itemId}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /cart/items/{itemId}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /cart", h.handleClearCart)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type countResponse struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cart, err := h.getCart.Handle(r.Context(), queries.GetCartQuery{UserID: userID})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleGetTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	totals, err := h.cartTotals.Handle(r.Context(), queries.CartTotalsQuery{UserID: userID})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) handleGetCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.itemCount.Handle(r.Context(), queries.ItemCountQuery{UserID: userID})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.addItem.Handle(r.Context(), commands.AddItemCommand{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.updateItem.Handle(r.Context(), commands.UpdateItemQuantityCommand{
		UserID:   userID,
		ItemID:   r.PathValue("itemId"),
		Quantity: req.Quantity,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := h.removeItem.Handle(r.Context(), commands.RemoveItemCommand{UserID: userID, ItemID: r.PathValue("itemId")})
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.clearCart.Handle(r.Context(), commands.ClearCartCommand{UserID: userID}); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func requireUser(w http.ResponseWriter, r *http.Request) (types.UserID, bool) {
	userID, ok := httpserver.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+httpserver.UserIDHeader+" header")
	}
	return userID, ok
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrProductUnavailable),
		errors.Is(err, domain.ErrCartConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
